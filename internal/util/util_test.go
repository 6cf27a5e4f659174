package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	assert.False(t, DirExists(dir))

	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))
	require.NoError(t, EnsureDir(dir))
}

func TestEnsureDirOverFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.False(t, DirExists(file))
	assert.Error(t, EnsureDir(file))
}
