/*
Package builder compiles one generated variant source, together with the fixed
shared sources of the trained program, into a per-configuration executable.

The compiler is invoked once per configuration with a fixed flag set:

 1. Include path: one -I flag per configured include directory.

 2. Language standard and optimization level: -std=<std> and -<opt>.

 3. Inputs: the shared sources in their configured order, followed by the
    generated variant. The order matters for linkers that resolve symbols left
    to right.

 4. Output and libraries: -o <exe>, then one -l flag per library (the math
    library by default).

A non-zero compiler exit is reported as *outcome.BuildFailure carrying the
compiler's diagnostics. The builder writes nothing besides the executable; the
caller owns the generated source and decides where the executable lives.
*/
package builder
