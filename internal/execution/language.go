package execution

// Toolchain describes how one submission format is staged, compiled and run.
// Compiler is an argv prefix invoked as `compiler <src> -o <artifact>`; empty
// means the language is interpreted. Runner is an argv prefix invoked against
// the staged source; empty means the compiled artifact is executed directly.
type Toolchain struct {
	Extension string
	Compiler  []string
	Runner    []string
}

// Compiled reports whether the format needs a compile step.
func (t Toolchain) Compiled() bool {
	return len(t.Compiler) > 0
}

// DefaultToolchains returns the supported format table.
func DefaultToolchains() map[string]Toolchain {
	return map[string]Toolchain{
		"cpp": {Extension: "cpp", Compiler: []string{"g++"}},
		"c":   {Extension: "c", Compiler: []string{"gcc"}},
		"py":  {Extension: "py", Runner: []string{"python3"}},
	}
}
