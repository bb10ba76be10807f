package driver

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func requireCC(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("cc"); err != nil {
		if _, err := exec.LookPath("gcc"); err != nil {
			if _, err := exec.LookPath("clang"); err != nil {
				t.Skip("no C toolchain available to drive the preprocessor/assembler/linker")
			}
		}
	}
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "in.c")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestStageLexStopsEarlyAndWritesNoFiles(t *testing.T) {
	requireCC(t)
	path := writeSource(t, "int main(void) { return 2; }\n")
	var errOut bytes.Buffer
	if err := Compile(path, Options{Stage: StageLex}, &errOut); err != nil {
		t.Fatalf("Compile: %v, stderr=%s", err, errOut.String())
	}
	if _, err := os.Stat(withExt(path, ".s")); !os.IsNotExist(err) {
		t.Fatalf("expected no .s file at the lex stage")
	}
}

func TestStageParseRejectsBadSyntax(t *testing.T) {
	requireCC(t)
	path := writeSource(t, "int main(void) { return }\n")
	var errOut bytes.Buffer
	if err := Compile(path, Options{Stage: StageParse}, &errOut); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestStageValidateRejectsUndeclaredIdentifier(t *testing.T) {
	requireCC(t)
	path := writeSource(t, "int main(void) { return x; }\n")
	var errOut bytes.Buffer
	if err := Compile(path, Options{Stage: StageValidate}, &errOut); err == nil {
		t.Fatalf("expected a semantic error")
	}
}

func TestEmitAssemblyWritesSFileAndCleansUpTemp(t *testing.T) {
	requireCC(t)
	path := writeSource(t, "int main(void) { return 2; }\n")
	var errOut bytes.Buffer
	if err := Compile(path, Options{EmitAssembly: true}, &errOut); err != nil {
		t.Fatalf("Compile: %v, stderr=%s", err, errOut.String())
	}
	sFile := withExt(path, ".s")
	if _, err := os.Stat(sFile); err != nil {
		t.Fatalf("expected %s to exist: %v", sFile, err)
	}
	if _, err := os.Stat(withExt(path, ".i")); !os.IsNotExist(err) {
		t.Fatalf("expected the .i intermediate to be removed")
	}
}

func TestFullCompileProducesExecutableAndCleansUpIntermediates(t *testing.T) {
	requireCC(t)
	path := writeSource(t, "int main(void) { return 0; }\n")
	var errOut bytes.Buffer
	if err := Compile(path, Options{}, &errOut); err != nil {
		t.Fatalf("Compile: %v, stderr=%s", err, errOut.String())
	}
	for _, ext := range []string{".i", ".s", ".o"} {
		if _, err := os.Stat(withExt(path, ext)); !os.IsNotExist(err) {
			t.Fatalf("expected intermediate %s to be removed", ext)
		}
	}
	if _, err := os.Stat(withoutExt(path)); err != nil {
		t.Fatalf("expected executable to exist: %v", err)
	}
}
