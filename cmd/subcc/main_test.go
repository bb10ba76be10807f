package main

import (
	"bytes"
	"testing"
)

func TestVersion(t *testing.T) {
	if version == "" {
		t.Error("version should not be empty")
	}
}

func TestStageFlagsExist(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)

	for _, flagName := range []string{"lex", "parse", "validate", "tacky", "codegen", "emit-assembly", "compile-only"} {
		if cmd.Flags().Lookup(flagName) == nil {
			t.Errorf("expected flag --%s to exist", flagName)
		}
	}
}

func TestStageFlagsAreMutuallyExclusive(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{"--lex", "--parse", "test.c"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error combining --lex and --parse")
	}
}

func TestResolveStageDefaultsToFull(t *testing.T) {
	fLex, fParse, fValidate, fTacky, fCodegen = false, false, false, false, false
	stage, err := resolveStage()
	if err != nil {
		t.Fatalf("resolveStage: %v", err)
	}
	if stage != 0 {
		t.Fatalf("expected StageFull (0), got %v", stage)
	}
}

func TestResolveStagePicksTacky(t *testing.T) {
	fLex, fParse, fValidate, fCodegen = false, false, false, false
	fTacky = true
	defer func() { fTacky = false }()
	stage, err := resolveStage()
	if err != nil {
		t.Fatalf("resolveStage: %v", err)
	}
	if stage != 4 {
		t.Fatalf("expected StageTacky (4), got %v", stage)
	}
}

func TestParseDefinesHandlesNameAndNameValue(t *testing.T) {
	defines := parseDefines([]string{"FOO", "BAR=1"})
	if v, ok := defines["FOO"]; !ok || v != "" {
		t.Fatalf("expected FOO to map to empty string, got %q, ok=%v", v, ok)
	}
	if v, ok := defines["BAR"]; !ok || v != "1" {
		t.Fatalf("expected BAR to map to \"1\", got %q, ok=%v", v, ok)
	}
}

func TestArgsRequiresExactlyOneFile(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected an error with no positional argument")
	}
}
