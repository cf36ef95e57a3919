package fs

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockFSBasic(t *testing.T) {
	fs := MockFS(map[string]string{
		"/README.md":          "// README.md",
		"/src/App.vue":        "<template></template>",
		"/src/util/index.ts":  "// src/util/index.ts",
		"/node_modules/a.css": "a {}",
	}, "/")

	// Test a missing file
	_, err := fs.ReadFile("/missing.txt")
	assert.ErrorIs(t, err, syscall.ENOENT)
	assert.False(t, fs.IsFile("/missing.txt"))

	// Test an existing nested file
	contents, err := fs.ReadFile("/src/util/index.ts")
	require.NoError(t, err)
	assert.Equal(t, "// src/util/index.ts", contents)
	assert.True(t, fs.IsFile("/src/util/index.ts"))
	assert.True(t, fs.IsFile("/src/util/../App.vue"))

	// Directories are not files
	assert.False(t, fs.IsFile("/src/util"))
	_, err = fs.ReadFile("/src")
	assert.ErrorIs(t, err, syscall.EISDIR)

	assert.Equal(t, "/", fs.Cwd())
}
