package tackygen

import (
	"strings"
	"testing"

	"github.com/adrianmoss/subcc/pkg/lexer"
	"github.com/adrianmoss/subcc/pkg/parser"
	"github.com/adrianmoss/subcc/pkg/semantic"
	"github.com/adrianmoss/subcc/pkg/tacky"
)

func generate(t *testing.T, src string) *tacky.Program {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	prog, perrs := parser.ParseProgram(toks)
	if len(perrs) > 0 {
		t.Fatalf("parse errors: %v", perrs)
	}
	table, errs := semantic.Check(prog)
	if len(errs) > 0 {
		t.Fatalf("semantic errors: %v", errs)
	}
	return Generate(prog, table)
}

func TestGenerateReturnConstant(t *testing.T) {
	out := generate(t, `int main(void) { return 2; }`)
	if len(out.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(out.Items))
	}
	fn, ok := out.Items[0].(*tacky.Function)
	if !ok {
		t.Fatalf("expected *tacky.Function, got %T", out.Items[0])
	}
	if len(fn.Body) == 0 {
		t.Fatalf("expected non-empty body")
	}
	if _, ok := fn.Body[len(fn.Body)-1].(*tacky.Return); !ok {
		t.Fatalf("last instruction should be Return (fallthrough), got %T", fn.Body[len(fn.Body)-1])
	}
}

func TestGenerateFunctionFallsOffEndReturnsZero(t *testing.T) {
	out := generate(t, `int main(void) { int x = 1; }`)
	fn := out.Items[0].(*tacky.Function)
	ret, ok := fn.Body[len(fn.Body)-1].(*tacky.Return)
	if !ok {
		t.Fatalf("expected trailing Return, got %T", fn.Body[len(fn.Body)-1])
	}
	c, ok := ret.Value.(tacky.Constant)
	if !ok || c.Value != 0 {
		t.Fatalf("expected Return(0), got %+v", ret.Value)
	}
}

func TestGenerateShortCircuitAnd(t *testing.T) {
	out := generate(t, `int main(void) { int a = 1; int b = 0; return a && b; }`)
	fn := out.Items[0].(*tacky.Function)
	var sawJZ int
	for _, inst := range fn.Body {
		if _, ok := inst.(*tacky.JumpIfZero); ok {
			sawJZ++
		}
	}
	if sawJZ < 2 {
		t.Fatalf("expected at least 2 JumpIfZero instructions for &&, got %d", sawJZ)
	}
}

func TestGeneratePostfixIncrementSavesOldValue(t *testing.T) {
	out := generate(t, `int main(void) { int a = 1; int b = a++; return b; }`)
	fn := out.Items[0].(*tacky.Function)
	var sawCopy, sawBinary bool
	for _, inst := range fn.Body {
		switch v := inst.(type) {
		case *tacky.Copy:
			sawCopy = true
		case *tacky.Binary:
			if v.Op == 0 { // OpAdd
				sawBinary = true
			}
		}
	}
	if !sawCopy || !sawBinary {
		t.Fatalf("expected a Copy (saved value) and a Binary Add instruction")
	}
}

func TestGenerateStaticVariableTentative(t *testing.T) {
	out := generate(t, `int counter; int main(void) { return counter; }`)
	var found bool
	for _, item := range out.Items {
		if sv, ok := item.(*tacky.StaticVariable); ok && sv.Name == "counter" {
			found = true
			if sv.Init != 0 {
				t.Fatalf("expected tentative static to initialize to 0, got %d", sv.Init)
			}
		}
	}
	if !found {
		t.Fatalf("expected a StaticVariable for counter")
	}
}

func TestGenerateSwitchWithDefault(t *testing.T) {
	out := generate(t, `int main(void) {
		int x = 2;
		switch (x) {
			case 1: return 1;
			default: return 99;
		}
	}`)
	fn := out.Items[0].(*tacky.Function)
	var sawJumpToDefault bool
	var defaultLabel string
	labels := make(map[string]bool)
	for _, inst := range fn.Body {
		if l, ok := inst.(*tacky.Label); ok {
			// collect every defined label so the jump target below can be
			// checked against the default case's own Label
			labels[l.Name] = true
		}
	}
	for _, inst := range fn.Body {
		if j, ok := inst.(*tacky.Jump); ok && strings.HasSuffix(j.Target, ".default") {
			defaultLabel = j.Target
			sawJumpToDefault = true
		}
	}
	if !sawJumpToDefault || defaultLabel == "" || !labels[defaultLabel] {
		t.Fatalf("expected an unconditional jump targeting the default label")
	}
}
