package execution_test

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KumudBhatt/Code-Nexus/internal/execution"
	"github.com/KumudBhatt/Code-Nexus/internal/services"
)

// shToolchains uses the shell as an interpreter so the run-step scenarios stay
// deterministic on hosts without compilers installed.
func shToolchains() map[string]execution.Toolchain {
	return map[string]execution.Toolchain{
		"sh": {Extension: "sh", Runner: []string{"sh"}},
	}
}

func newPipeline(t *testing.T, toolchains map[string]execution.Toolchain, timeout time.Duration) (*execution.Pipeline, string) {
	t.Helper()
	dir := t.TempDir()
	stager, err := execution.NewStager(dir)
	require.NoError(t, err)
	return execution.NewPipeline(stager, toolchains, timeout, 2, services.NewMetrics()), dir
}

func assertStagingEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory must hold no artifacts after a run")
}

func TestPipeline_Success(t *testing.T) {
	p, dir := newPipeline(t, shToolchains(), 5*time.Second)

	result := p.Execute(context.Background(), execution.Submission{
		SourceText: `printf hello`,
		Format:     "sh",
	})

	assert.Equal(t, execution.KindSuccess, result.Kind)
	assert.True(t, result.OK())
	assert.Equal(t, "hello", result.Output)
	assertStagingEmpty(t, dir)
}

func TestPipeline_StdinDeliveredThenClosed(t *testing.T) {
	p, dir := newPipeline(t, shToolchains(), 5*time.Second)

	result := p.Execute(context.Background(), execution.Submission{
		SourceText: `read n; printf %s $((n*n))`,
		Format:     "sh",
		Stdin:      "7\n",
	})

	assert.Equal(t, execution.KindSuccess, result.Kind)
	assert.Equal(t, "49", result.Output)
	assertStagingEmpty(t, dir)
}

func TestPipeline_RuntimeError(t *testing.T) {
	t.Run("nonzero exit with stderr", func(t *testing.T) {
		p, dir := newPipeline(t, shToolchains(), 5*time.Second)

		result := p.Execute(context.Background(), execution.Submission{
			SourceText: `printf partial; echo boom >&2; exit 3`,
			Format:     "sh",
		})

		assert.Equal(t, execution.KindRuntimeError, result.Kind)
		assert.Contains(t, result.Diagnostic, "boom")
		// Partial stdout captured before the crash is preserved.
		assert.Equal(t, "partial", result.Output)
		assertStagingEmpty(t, dir)
	})

	t.Run("nonzero exit with empty stderr falls back to placeholder", func(t *testing.T) {
		p, dir := newPipeline(t, shToolchains(), 5*time.Second)

		result := p.Execute(context.Background(), execution.Submission{
			SourceText: `exit 1`,
			Format:     "sh",
		})

		assert.Equal(t, execution.KindRuntimeError, result.Kind)
		assert.Contains(t, result.Diagnostic, "Unknown runtime error")
		assertStagingEmpty(t, dir)
	})
}

func TestPipeline_InfrastructureError(t *testing.T) {
	toolchains := map[string]execution.Toolchain{
		"sh": {Extension: "sh", Runner: []string{"/nonexistent/interpreter"}},
	}
	p, dir := newPipeline(t, toolchains, 5*time.Second)

	result := p.Execute(context.Background(), execution.Submission{
		SourceText: `printf hello`,
		Format:     "sh",
	})

	assert.Equal(t, execution.KindInfrastructureError, result.Kind)
	assert.NotEmpty(t, result.Diagnostic)
	assertStagingEmpty(t, dir)
}

func TestPipeline_Timeout(t *testing.T) {
	p, dir := newPipeline(t, shToolchains(), 300*time.Millisecond)

	start := time.Now()
	result := p.Execute(context.Background(), execution.Submission{
		SourceText: `sleep 30`,
		Format:     "sh",
	})

	assert.Equal(t, execution.KindTimeout, result.Kind)
	assert.Less(t, time.Since(start), 10*time.Second, "hung program must be terminated, not waited out")
	assertStagingEmpty(t, dir)
}

func TestPipeline_UnsupportedFormat(t *testing.T) {
	p, dir := newPipeline(t, shToolchains(), time.Second)

	assert.False(t, p.SupportedFormat("cobol"))
	result := p.Execute(context.Background(), execution.Submission{Format: "cobol"})

	assert.Equal(t, execution.KindInfrastructureError, result.Kind)
	assertStagingEmpty(t, dir)
}

func TestPipeline_CompiledLanguage(t *testing.T) {
	if _, err := exec.LookPath("g++"); err != nil {
		t.Skip("g++ not installed")
	}

	t.Run("well-formed program compiles and runs", func(t *testing.T) {
		p, dir := newPipeline(t, execution.DefaultToolchains(), 30*time.Second)

		result := p.Execute(context.Background(), execution.Submission{
			SourceText: "int main(){return 0;}",
			Format:     "cpp",
		})

		assert.Equal(t, execution.KindSuccess, result.Kind)
		assert.Equal(t, "", result.Output)
		assertStagingEmpty(t, dir)
	})

	t.Run("unbalanced source yields a compile diagnostic and no leftovers", func(t *testing.T) {
		p, dir := newPipeline(t, execution.DefaultToolchains(), 30*time.Second)

		result := p.Execute(context.Background(), execution.Submission{
			SourceText: "int main(){ return",
			Format:     "cpp",
		})

		assert.Equal(t, execution.KindCompileError, result.Kind)
		assert.Contains(t, result.Diagnostic, "Compilation Failed:")
		assert.Greater(t, len(result.Diagnostic), len("Compilation Failed:\n"))
		assertStagingEmpty(t, dir)
	})

	t.Run("program reading stdin", func(t *testing.T) {
		p, dir := newPipeline(t, execution.DefaultToolchains(), 30*time.Second)

		src := `#include <iostream>
int main(){ int n; std::cin >> n; std::cout << n*n; return 0; }`
		result := p.Execute(context.Background(), execution.Submission{
			SourceText: src,
			Format:     "cpp",
			Stdin:      "7",
		})

		assert.Equal(t, execution.KindSuccess, result.Kind)
		assert.Equal(t, "49", result.Output)
		assertStagingEmpty(t, dir)
	})

	t.Run("aborting program classified as runtime failure", func(t *testing.T) {
		p, dir := newPipeline(t, execution.DefaultToolchains(), 30*time.Second)

		src := `#include <cstdlib>
int main(){ std::abort(); }`
		result := p.Execute(context.Background(), execution.Submission{
			SourceText: src,
			Format:     "cpp",
		})

		assert.Equal(t, execution.KindRuntimeError, result.Kind)
		assertStagingEmpty(t, dir)
	})
}

func TestPipeline_ConcurrentSubmissionsAreIndependent(t *testing.T) {
	p, dir := newPipeline(t, shToolchains(), 5*time.Second)

	results := make(chan execution.Result, 4)
	for i := 0; i < 4; i++ {
		go func() {
			results <- p.Execute(context.Background(), execution.Submission{
				SourceText: `read n; printf %s $((n+1))`,
				Format:     "sh",
				Stdin:      "1\n",
			})
		}()
	}

	for i := 0; i < 4; i++ {
		result := <-results
		assert.Equal(t, execution.KindSuccess, result.Kind)
		assert.Equal(t, "2", result.Output)
	}
	assertStagingEmpty(t, dir)
}
