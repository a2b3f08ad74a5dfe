package hclsweep

import (
	"strings"
	"unicode/utf8"

	"github.com/zclconf/go-cty/cty"
)

// envVariables exposes environ as the `env` object. Entries that are not
// valid UTF-8 cannot be represented as cty strings and are left out.
func envVariables(environ []string) map[string]cty.Value {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" || !utf8.ValidString(name) || !utf8.ValidString(value) {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	env := cty.EmptyObjectVal
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	}
	return map[string]cty.Value{"env": env}
}
