package execution_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KumudBhatt/Code-Nexus/internal/execution"
)

func TestStager_RoundTrip(t *testing.T) {
	stager, err := execution.NewStager(t.TempDir())
	require.NoError(t, err)

	source := "int main() {\n\treturn 0;\n}\n"
	path, err := stager.Stage("cpp", source)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, source, string(got), "staged file must be byte-identical to the submission")
	assert.True(t, strings.HasSuffix(path, ".cpp"))
}

func TestStager_UniquePaths(t *testing.T) {
	stager, err := execution.NewStager(t.TempDir())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		path, err := stager.Stage("py", "print(1)")
		require.NoError(t, err)
		assert.False(t, seen[path], "staged paths must never collide")
		seen[path] = true
	}
}

func TestStager_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "codes")

	stager, err := execution.NewStager(dir)
	require.NoError(t, err)

	info, err := os.Stat(stager.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
