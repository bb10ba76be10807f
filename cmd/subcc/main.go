package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/adrianmoss/subcc/pkg/driver"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Stage flags, mutually exclusive; stopping after that stage emits no
// output file.
var (
	fLex      bool
	fParse    bool
	fValidate bool
	fTacky    bool
	fCodegen  bool
)

var (
	fEmitAssembly bool // -S
	fCompileOnly  bool // -c
)

var (
	includePaths  []string
	defineFlags   []string
	undefineFlags []string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "subcc [file]",
		Short:         "subcc compiles a C subset to x86-64 assembly",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := resolveStage()
			if err != nil {
				return err
			}
			opts := driver.Options{
				Stage:        stage,
				EmitAssembly: fEmitAssembly,
				CompileOnly:  fCompileOnly,
				IncludePaths: includePaths,
				Defines:      parseDefines(defineFlags),
				Undefines:    undefineFlags,
			}
			filename := args[0]
			if err := driver.Compile(filename, opts, errOut); err != nil {
				return err
			}
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&fLex, "lex", false, "stop after lexing")
	rootCmd.Flags().BoolVar(&fParse, "parse", false, "stop after parsing")
	rootCmd.Flags().BoolVar(&fValidate, "validate", false, "stop after semantic analysis")
	rootCmd.Flags().BoolVar(&fTacky, "tacky", false, "stop after TAC generation")
	rootCmd.Flags().BoolVar(&fCodegen, "codegen", false, "stop after instruction selection and register assignment")

	rootCmd.Flags().BoolVarP(&fEmitAssembly, "emit-assembly", "S", false, "emit assembly only, do not assemble or link")
	rootCmd.Flags().BoolVarP(&fCompileOnly, "compile-only", "c", false, "assemble to an object file, do not link")

	rootCmd.Flags().StringArrayVarP(&includePaths, "include", "I", nil, "add directory to the preprocessor include path")
	rootCmd.Flags().StringArrayVarP(&defineFlags, "define", "D", nil, "define a preprocessor macro (NAME or NAME=VALUE)")
	rootCmd.Flags().StringArrayVarP(&undefineFlags, "undefine", "U", nil, "undefine a preprocessor macro")

	rootCmd.MarkFlagsMutuallyExclusive("lex", "parse", "validate", "tacky", "codegen")
	rootCmd.MarkFlagsMutuallyExclusive("emit-assembly", "compile-only")

	return rootCmd
}

func resolveStage() (driver.Stage, error) {
	switch {
	case fLex:
		return driver.StageLex, nil
	case fParse:
		return driver.StageParse, nil
	case fValidate:
		return driver.StageValidate, nil
	case fTacky:
		return driver.StageTacky, nil
	case fCodegen:
		return driver.StageCodegen, nil
	default:
		return driver.StageFull, nil
	}
}

func parseDefines(flags []string) map[string]string {
	defines := make(map[string]string)
	for _, d := range flags {
		if idx := strings.Index(d, "="); idx >= 0 {
			defines[d[:idx]] = d[idx+1:]
		} else {
			defines[d] = ""
		}
	}
	return defines
}
