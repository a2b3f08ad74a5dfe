package fsutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0o755))
	for _, name := range []string{"a.csv", "b.txt", "nested/c.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), nil, 0o644))
	}

	files, err := FindFiles(root, func(name string) bool { return strings.HasSuffix(name, ".csv") })
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(root, "a.csv"), filepath.Join(root, "nested", "c.csv")}, files)

	files, err = FindFiles(filepath.Join(root, "does-not-exist"), func(string) bool { return true })
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestIsEmptyDir(t *testing.T) {
	root := t.TempDir()
	empty, err := IsEmptyDir(root)
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, os.WriteFile(filepath.Join(root, "x"), nil, 0o644))
	empty, err = IsEmptyDir(root)
	require.NoError(t, err)
	assert.False(t, empty)

	_, err = IsEmptyDir(filepath.Join(root, "missing"))
	assert.Error(t, err)
}
