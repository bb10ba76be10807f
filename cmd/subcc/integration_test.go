package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/adrianmoss/subcc/pkg/driver"
)

// e2eScenario is a source fragment and the exit code its compiled
// executable must produce.
type e2eScenario struct {
	name     string
	source   string
	wantExit int
}

var e2eScenarios = []e2eScenario{
	{
		name:     "return constant",
		source:   "int main(void) { return 42; }\n",
		wantExit: 42,
	},
	{
		name:     "locals and arithmetic",
		source:   "int main(void) { int x = 3; int y = 4; return x*x + y*y; }\n",
		wantExit: 25,
	},
	{
		name:     "function call",
		source:   "int add(int a, int b) { return a + b; } int main(void) { return add(15, 27); }\n",
		wantExit: 42,
	},
	{
		name:     "for loop accumulation",
		source:   "int main(void) { int sum = 0; for (int i = 1; i <= 10; ++i) sum += i; return sum; }\n",
		wantExit: 55,
	},
	{
		name:     "if-else",
		source:   "int main(void) { int x = 10; if (x > 5) return 1; else return 0; }\n",
		wantExit: 1,
	},
	{
		name:     "switch with default",
		source:   "int main(void) { int x = 2; switch (x) { case 1: return 10; case 2: return 20; default: return 99; } }\n",
		wantExit: 20,
	},
	{
		name:     "static variable survives across calls",
		source:   "static int counter = 0; int bump(void) { return ++counter; } int main(void) { bump(); bump(); return bump(); }\n",
		wantExit: 3,
	},
}

func requireToolchain(t *testing.T) {
	t.Helper()
	for _, cc := range []string{"cc", "gcc", "clang"} {
		if _, err := exec.LookPath(cc); err == nil {
			return
		}
	}
	t.Skip("no C toolchain available to assemble and link the compiled output")
}

func TestEndToEndScenarios(t *testing.T) {
	requireToolchain(t)

	for _, sc := range e2eScenarios {
		t.Run(sc.name, func(t *testing.T) {
			dir := t.TempDir()
			srcPath := filepath.Join(dir, "in.c")
			if err := os.WriteFile(srcPath, []byte(sc.source), 0o644); err != nil {
				t.Fatalf("write source: %v", err)
			}

			var errOut bytes.Buffer
			if err := driver.Compile(srcPath, driver.Options{}, &errOut); err != nil {
				t.Fatalf("compile failed: %v\n%s", err, errOut.String())
			}

			exePath := srcPath[:len(srcPath)-len(".c")]
			cmd := exec.Command(exePath)
			err := cmd.Run()
			if err == nil {
				if sc.wantExit != 0 {
					t.Fatalf("expected exit code %d, got 0", sc.wantExit)
				}
				return
			}
			exitErr, ok := err.(*exec.ExitError)
			if !ok {
				t.Fatalf("running compiled executable: %v", err)
			}
			if got := exitErr.ExitCode(); got != sc.wantExit {
				t.Fatalf("expected exit code %d, got %d", sc.wantExit, got)
			}
		})
	}
}
