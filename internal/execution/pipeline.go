package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/KumudBhatt/Code-Nexus/internal/services"
)

// ResultKind classifies the terminal state of one submission.
type ResultKind string

const (
	KindSuccess             ResultKind = "success"
	KindCompileError        ResultKind = "compileError"
	KindRuntimeError        ResultKind = "runtimeError"
	KindTimeout             ResultKind = "timeout"
	KindInfrastructureError ResultKind = "infrastructureError"
)

// Submission is one request to compile and run a block of source text. It is
// never persisted; it exists only for the duration of one Execute call.
type Submission struct {
	SourceText string
	Format     string
	Stdin      string
}

// Result is the classified outcome of one submission. Output carries whatever
// stdout was captured before termination; partial output from a crashed run
// is preserved, not discarded. Diagnostic carries compiler or runtime error
// text.
type Result struct {
	Kind       ResultKind
	Output     string
	Diagnostic string
}

// OK reports whether the submission completed with exit status zero.
func (r Result) OK() bool {
	return r.Kind == KindSuccess
}

// Pipeline stages, compiles and runs submissions. Each submission is attempted
// exactly once, gets its own staged file and process tree, and every artifact
// it creates is removed before Execute returns, on every path. A semaphore
// bounds concurrent child processes; a wall-clock timeout bounds each compile
// and run step.
type Pipeline struct {
	stager     *Stager
	toolchains map[string]Toolchain
	timeout    time.Duration
	sem        chan struct{}
	metrics    *services.Metrics
}

func NewPipeline(stager *Stager, toolchains map[string]Toolchain, timeout time.Duration, maxConcurrent int, metrics *services.Metrics) *Pipeline {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pipeline{
		stager:     stager,
		toolchains: toolchains,
		timeout:    timeout,
		sem:        make(chan struct{}, maxConcurrent),
		metrics:    metrics,
	}
}

// SupportedFormat reports whether a format tag has a toolchain.
func (p *Pipeline) SupportedFormat(format string) bool {
	_, ok := p.toolchains[format]
	return ok
}

// Execute runs one submission to a terminal state. It never returns a Go
// error: every failure mode is classified into the Result.
func (p *Pipeline) Execute(ctx context.Context, sub Submission) Result {
	tc, ok := p.toolchains[sub.Format]
	if !ok {
		return Result{
			Kind:       KindInfrastructureError,
			Diagnostic: fmt.Sprintf("unsupported format %q", sub.Format),
		}
	}

	select {
	case p.sem <- struct{}{}:
		defer func() { <-p.sem }()
	case <-ctx.Done():
		return Result{
			Kind:       KindInfrastructureError,
			Diagnostic: "execution capacity unavailable: " + ctx.Err().Error(),
		}
	}

	p.metrics.IncrementRunsStarted()

	srcPath, err := p.stager.Stage(tc.Extension, sub.SourceText)
	if err != nil {
		p.metrics.IncrementInfraFailures()
		return Result{Kind: KindInfrastructureError, Diagnostic: err.Error()}
	}
	artifactPath := strings.TrimSuffix(srcPath, "."+tc.Extension) + ".out"

	// Cleanup runs on every exit path, including spawn failure and timeout.
	// A file that is already gone is tolerated silently.
	defer func() {
		_ = os.Remove(srcPath)
		_ = os.Remove(artifactPath)
	}()

	runArgv := make([]string, 0, len(tc.Runner)+1)
	if tc.Compiled() {
		if res, failed := p.compile(ctx, tc, srcPath, artifactPath); failed {
			return res
		}
		runArgv = append(runArgv, artifactPath)
	} else {
		runArgv = append(append(runArgv, tc.Runner...), srcPath)
	}

	return p.run(ctx, sub, runArgv)
}

// compile spawns the format's compiler. The second return value is true when
// compilation did not produce a runnable artifact.
func (p *Pipeline) compile(ctx context.Context, tc Toolchain, srcPath, artifactPath string) (Result, bool) {
	compileCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	argv := append(append([]string{}, tc.Compiler...), srcPath, "-o", artifactPath)
	cmd := exec.CommandContext(compileCtx, argv[0], argv[1:]...)
	cmd.WaitDelay = time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	switch {
	case err == nil:
		return Result{}, false

	case compileCtx.Err() == context.DeadlineExceeded:
		p.metrics.IncrementRunTimeouts()
		return Result{
			Kind:       KindTimeout,
			Diagnostic: fmt.Sprintf("Compilation timed out after %s", p.timeout),
		}, true

	case isExitError(err):
		p.metrics.IncrementCompileFailures()
		return Result{
			Kind:       KindCompileError,
			Diagnostic: "Compilation Failed:\n" + stderr.String(),
		}, true

	default:
		// Toolchain binary missing, permission denied, etc.
		p.metrics.IncrementInfraFailures()
		log.Printf("compiler spawn failed (%s): %v", argv[0], err)
		return Result{Kind: KindInfrastructureError, Diagnostic: err.Error()}, true
	}
}

// run spawns the program, delivers stdin in full and closes it, and collects
// stdout/stderr until exit or timeout.
func (p *Pipeline) run(ctx context.Context, sub Submission, argv []string) Result {
	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.WaitDelay = time.Second
	cmd.Stdin = strings.NewReader(sub.Stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	switch {
	case err == nil:
		p.metrics.IncrementRunsSucceeded()
		return Result{Kind: KindSuccess, Output: stdout.String()}

	case runCtx.Err() == context.DeadlineExceeded:
		p.metrics.IncrementRunTimeouts()
		return Result{
			Kind:       KindTimeout,
			Output:     stdout.String(),
			Diagnostic: fmt.Sprintf("Execution timed out after %s", p.timeout),
		}

	case isExitError(err):
		p.metrics.IncrementRuntimeFailures()
		diagnostic := stderr.String()
		if diagnostic == "" {
			diagnostic = "Unknown runtime error"
		}
		return Result{
			Kind:       KindRuntimeError,
			Output:     stdout.String(),
			Diagnostic: "Execution Failed:\n" + diagnostic,
		}

	default:
		p.metrics.IncrementInfraFailures()
		log.Printf("program spawn failed (%s): %v", argv[0], err)
		return Result{Kind: KindInfrastructureError, Diagnostic: err.Error()}
	}
}

func isExitError(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}
