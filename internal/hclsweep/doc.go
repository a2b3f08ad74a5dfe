// Package hclsweep loads sweep definitions written in HCL into the
// format-agnostic config.Sweep model.
//
// A sweep file looks like:
//
//	seed    = 42
//	workers = 4
//
//	dataset "xor" {
//	  template = "src/main_xor.c"
//	}
//
//	activations     = ["RELU", "PRELU"]
//	init_strategies = ["ACT_INIT_DEFAULT"]
//
//	build {
//	  compiler = env.CC
//	}
//
// Expressions may reference the process environment through `env.<NAME>`.
package hclsweep
