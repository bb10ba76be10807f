package semantic

import (
	"strings"
	"testing"

	"github.com/adrianmoss/subcc/pkg/lexer"
	"github.com/adrianmoss/subcc/pkg/parser"
)

func TestCheckRejectsUndeclaredIdentifier(t *testing.T) {
	requireError(t, `int main(void) { return x; }`, "undeclared")
}

func TestCheckRejectsDuplicateDeclaration(t *testing.T) {
	requireError(t, `int main(void) { int x; int x; return 0; }`, "duplicate")
}

func TestCheckRenamesShadowedLocals(t *testing.T) {
	toks, err := lexer.Tokenize(`int main(void) { int x = 1; { int x = 2; } return x; }`)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	prog, perrs := parser.ParseProgram(toks)
	if len(perrs) > 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	if _, errs := Check(prog); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestCheckRejectsDuplicateLabel(t *testing.T) {
	requireError(t, `int main(void) { foo: foo: return 0; }`, "duplicate label")
}

func TestCheckRejectsUnresolvedGoto(t *testing.T) {
	requireError(t, `int main(void) { goto nowhere; return 0; }`, "goto")
}

func TestCheckRejectsBreakOutsideLoop(t *testing.T) {
	requireError(t, `int main(void) { break; return 0; }`, "break")
}

func TestCheckRejectsContinueOutsideLoop(t *testing.T) {
	requireError(t, `int main(void) { continue; return 0; }`, "continue")
}

func TestCheckAllowsBreakInsideSwitchInsideLoop(t *testing.T) {
	src := `int main(void) {
		while (1) {
			switch (1) {
				case 1: break;
			}
			break;
		}
		return 0;
	}`
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	prog, perrs := parser.ParseProgram(toks)
	if len(perrs) > 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	if _, errs := Check(prog); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestCheckRejectsCaseOutsideSwitch(t *testing.T) {
	requireError(t, `int main(void) { case 1: return 0; }`, "case")
}

func TestCheckRejectsDuplicateCaseValue(t *testing.T) {
	requireError(t, `int main(void) { switch (1) { case 1: return 1; case 1: return 2; } return 0; }`, "duplicate case")
}

func TestCheckRejectsMultipleDefaults(t *testing.T) {
	requireError(t, `int main(void) { switch (1) { default: return 1; default: return 2; } return 0; }`, "multiple default")
}

func TestCheckRejectsArgumentCountMismatch(t *testing.T) {
	requireError(t, `int add(int a, int b); int main(void) { return add(1); }`, "argument")
}

func TestCheckRejectsExternWithInitializer(t *testing.T) {
	requireError(t, `int main(void) { extern int x = 1; return 0; }`, "initializer")
}

func TestCheckRejectsStorageClassOnForInit(t *testing.T) {
	requireError(t, `int main(void) { for (static int i = 0; i < 1; i = i + 1) { } return 0; }`, "storage class")
}

func TestCheckAssignsCommonTypeToBinary(t *testing.T) {
	toks, err := lexer.Tokenize(`long add(long a, int b) { return a + b; }`)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	prog, perrs := parser.ParseProgram(toks)
	if len(perrs) > 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	if _, errs := Check(prog); len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func requireError(t *testing.T, src, substr string) {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	prog, perrs := parser.ParseProgram(toks)
	if len(perrs) > 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	_, errs := Check(prog)
	if len(errs) == 0 {
		t.Fatalf("expected an error containing %q, got none", substr)
	}
	found := false
	for _, e := range errs {
		if strings.Contains(strings.ToLower(e.Error()), substr) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an error containing %q, got %v", substr, errs)
	}
}
