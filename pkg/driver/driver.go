// Package driver wires the compilation passes into an end-to-end pipeline:
// external preprocessing, the lex/parse/validate/tacky/codegen stages, and
// invocation of the external assembler and linker. Every stage is
// single-threaded and synchronous; the only concurrency is the external
// child processes this package spawns, each of which blocks until it exits.
package driver

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/adrianmoss/subcc/pkg/asm"
	"github.com/adrianmoss/subcc/pkg/codegen"
	"github.com/adrianmoss/subcc/pkg/lexer"
	"github.com/adrianmoss/subcc/pkg/parser"
	"github.com/adrianmoss/subcc/pkg/semantic"
	"github.com/adrianmoss/subcc/pkg/tackygen"
)

// Stage names a stopping point in the pipeline. A zero value means run the
// full pipeline through to an executable (subject to Options.EmitAssembly
// and Options.CompileOnly).
type Stage int

const (
	StageFull Stage = iota
	StageLex
	StageParse
	StageValidate
	StageTacky
	StageCodegen
)

// ExternalToolError reports a non-zero exit from a spawned child process
// (the preprocessor, assembler, or linker).
type ExternalToolError struct {
	Tool   string
	Args   []string
	Stderr string
	Err    error
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("%s failed: %v\n%s", e.Tool, e.Err, e.Stderr)
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// Options configures a single compile run.
type Options struct {
	Stage        Stage
	EmitAssembly bool // -S: stop after writing the .s file
	CompileOnly  bool // -c: stop after assembling to .o
	IncludePaths []string
	Defines      map[string]string
	Undefines    []string
}

// cppCommand finds an external C preprocessor/assembler/linker front end.
func cppCommand() (string, error) {
	if cc := os.Getenv("CC"); cc != "" {
		if path, err := exec.LookPath(cc); err == nil {
			return path, nil
		}
	}
	for _, candidate := range []string{"cc", "gcc", "clang"} {
		if path, err := exec.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no C toolchain found (tried $CC, cc, gcc, clang)")
}

// Compile runs the pipeline against filename, honoring opts.Stage as an
// early exit point. errOut receives the diagnostics of a failed lex, parse
// or semantic stage; preprocessor, file and assembler/linker failures are
// only returned as the error.
func Compile(filename string, opts Options, errOut io.Writer) error {
	preprocessed, iFile, err := preprocess(filename, opts)
	if err != nil {
		return err
	}
	defer os.Remove(iFile)

	toks, err := lexer.Tokenize(preprocessed)
	if err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", filename, err)
		return err
	}
	if opts.Stage == StageLex {
		return nil
	}

	prog, perrs := parser.ParseProgram(toks)
	if len(perrs) > 0 {
		for _, e := range perrs {
			fmt.Fprintf(errOut, "%s: %v\n", filename, e)
		}
		return fmt.Errorf("parsing failed with %d errors", len(perrs))
	}
	if opts.Stage == StageParse {
		return nil
	}

	table, serrs := semantic.Check(prog)
	if len(serrs) > 0 {
		for _, e := range serrs {
			fmt.Fprintf(errOut, "%s: %v\n", filename, e)
		}
		return fmt.Errorf("semantic analysis failed with %d errors", len(serrs))
	}
	if opts.Stage == StageValidate {
		return nil
	}

	tac := tackygen.Generate(prog, table)
	if opts.Stage == StageTacky {
		return nil
	}

	asmProg := codegen.Generate(tac, table)
	if opts.Stage == StageCodegen {
		return nil
	}

	sFile := withExt(filename, ".s")
	sOut, err := os.Create(sFile)
	if err != nil {
		return err
	}
	asm.NewPrinter(sOut).PrintProgram(asmProg)
	if cerr := sOut.Close(); cerr != nil {
		return cerr
	}

	if opts.EmitAssembly {
		return nil
	}
	defer os.Remove(sFile)

	oFile := withExt(filename, ".o")
	if err := assemble(sFile, oFile); err != nil {
		os.Remove(oFile)
		return err
	}

	if opts.CompileOnly {
		return nil
	}
	defer os.Remove(oFile)

	exeFile := withoutExt(filename)
	if err := link(oFile, exeFile); err != nil {
		os.Remove(exeFile)
		return err
	}

	return nil
}

// preprocess invokes the external preprocessor, stripping comments and `#`
// directives, and writes the result to a temporary `.i` file.
func preprocess(filename string, opts Options) (content string, tmpFile string, err error) {
	cc, err := cppCommand()
	if err != nil {
		return "", "", err
	}

	args := []string{"-E", "-P"}
	for _, p := range opts.IncludePaths {
		args = append(args, "-I"+p)
	}
	for name, value := range opts.Defines {
		if value == "" {
			args = append(args, "-D"+name)
		} else {
			args = append(args, "-D"+name+"="+value)
		}
	}
	for _, name := range opts.Undefines {
		args = append(args, "-U"+name)
	}
	args = append(args, filename)

	cmd := exec.Command(cc, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Dir = filepath.Dir(filename)

	if runErr := cmd.Run(); runErr != nil {
		return "", "", &ExternalToolError{Tool: cc, Args: args, Stderr: stderr.String(), Err: runErr}
	}

	iFile := withExt(filename, ".i")
	if err := os.WriteFile(iFile, stdout.Bytes(), 0o644); err != nil {
		return "", "", err
	}
	return stdout.String(), iFile, nil
}

func assemble(sFile, oFile string) error {
	cc, err := cppCommand()
	if err != nil {
		return err
	}
	return runTool(cc, []string{"-c", sFile, "-o", oFile})
}

func link(oFile, exeFile string) error {
	cc, err := cppCommand()
	if err != nil {
		return err
	}
	return runTool(cc, []string{oFile, "-o", exeFile})
}

func runTool(name string, args []string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &ExternalToolError{Tool: name, Args: args, Stderr: stderr.String(), Err: err}
	}
	return nil
}

func withExt(filename, ext string) string {
	return withoutExt(filename) + ext
}

func withoutExt(filename string) string {
	if strings.HasSuffix(filename, ".c") {
		return filename[:len(filename)-len(".c")]
	}
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return filename[:i]
	}
	return filename
}
