package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// XORTemplate is a minimal base program exposing every slot the patcher
// rewrites, shaped like the XOR trainer's main.
const XORTemplate = `#include "network.h"
#include "data.h"

int main()
{
    srand_seed(42);
     int arch[] = {2, 4, 1};
     ActType acts[] = {FIXED_SIG, FIXED_SIG};
     Network net = init_net(2, arch, 3, acts);

    char logf[256];
    sprintf(logf, "experiments/results/xor_poly_%d.csv", 42);
    return 0;
}
`

// ThreeRowLog is a per-run log with epochs 0..2 and one parameter column.
const ThreeRowLog = "epoch,loss,acc,p0\n0,0.9,0.4,1.0\n1,0.5,0.7,1.1\n2,0.3,0.85,1.2\n"

// FakeProgram describes what the fake compiler and its "executables" do.
//
// The compiler accepts gcc-style arguments, treats the last .c input as the
// generated variant, and emits a shell script as the executable. The script
// starts with LOG (the log path injected into the variant) and SOURCE (the
// variant path) set, followed by Body.
type FakeProgram struct {
	// FailCompileWhen makes the compiler exit 1 when the variant contains it.
	FailCompileWhen string
	// Body is the shell body of every produced executable.
	Body string
}

// WriteLogBody returns a program body that writes content to the injected log path.
func WriteLogBody(content string) string {
	return fmt.Sprintf("mkdir -p \"$(dirname \"$LOG\")\"\nprintf '%%s' '%s' > \"$LOG\"\n", content)
}

const compilerScript = `#!/bin/sh
out=""
src=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift 2 ;;
    *.c) src="$1"; shift ;;
    *) shift ;;
  esac
done
if [ -n "@FAIL@" ] && grep -q "@FAIL@" "$src"; then
  echo "$src:1: error: refusing to compile @FAIL@" >&2
  exit 1
fi
log=$(sed -n 's/.*sprintf(logf, "\([^"]*\)".*/\1/p' "$src")
{
  echo '#!/bin/sh'
  echo "LOG=\"$log\""
  echo "SOURCE=\"$src\""
  cat "@BODY@"
} > "$out"
chmod +x "$out"
`

// WriteFakeCompiler writes a fake compiler into dir and returns its path.
// Tests using it are skipped when no POSIX shell is available.
func WriteFakeCompiler(t *testing.T, dir string, prog FakeProgram) string {
	t.Helper()
	RequireShell(t)

	bodyPath := filepath.Join(dir, "program_body.sh")
	require.NoError(t, os.WriteFile(bodyPath, []byte(prog.Body), 0o644))

	script := strings.NewReplacer("@FAIL@", prog.FailCompileWhen, "@BODY@", bodyPath).Replace(compilerScript)
	compiler := filepath.Join(dir, "fakecc")
	require.NoError(t, os.WriteFile(compiler, []byte(script), 0o755))
	return compiler
}

// RequireShell skips the test when sh is not on PATH.
func RequireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("POSIX shell not available")
	}
}

// WriteFile writes content to root/rel, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}
