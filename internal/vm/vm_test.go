package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Z2ZATL/Luma-CL/internal/ast"
	"github.com/Z2ZATL/Luma-CL/internal/parser"
)

func parse(t *testing.T, input string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse(input)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	return prog
}

func compile(t *testing.T, input string) *Chunk {
	t.Helper()
	chunk, err := NewCompiler().Compile(parse(t, input))
	if err != nil {
		t.Fatalf("compilation error: %s", err)
	}
	return chunk
}

// runVM compiles and runs a program, returning its result and printed output.
func runVM(t *testing.T, input string) (Value, string) {
	t.Helper()
	chunk := compile(t, input)

	var out bytes.Buffer
	machine := New()
	machine.SetOutput(&out)
	result, err := machine.Interpret(chunk)
	if err != nil {
		t.Fatalf("runtime error: %s\noutput so far: %s", err, out.String())
	}
	return result, out.String()
}

// evalExpr compiles a single expression and returns its value.
func evalExpr(t *testing.T, input string) Value {
	t.Helper()
	expr, err := parser.ParseExpression(input)
	if err != nil {
		t.Fatalf("parse error: %s", err)
	}
	chunk, err := NewCompiler().CompileExpression(expr)
	if err != nil {
		t.Fatalf("compilation error: %s", err)
	}
	result, err := New().Interpret(chunk)
	if err != nil {
		t.Fatalf("runtime error: %s", err)
	}
	return result
}

func testNumberValue(t *testing.T, v Value, expected float64) {
	t.Helper()
	if !v.IsNumber() {
		t.Fatalf("value is not a number. got=%s (%s)", v.Type, v.Inspect())
	}
	if v.AsNumber() != expected {
		t.Errorf("value has wrong number. got=%v, want=%v", v.AsNumber(), expected)
	}
}

func testBooleanValue(t *testing.T, v Value, expected bool) {
	t.Helper()
	if !v.IsBool() {
		t.Fatalf("value is not a boolean. got=%s (%s)", v.Type, v.Inspect())
	}
	if v.AsBool() != expected {
		t.Errorf("value has wrong boolean. got=%t, want=%t", v.AsBool(), expected)
	}
}

func testStringValue(t *testing.T, v Value, expected string) {
	t.Helper()
	if !v.IsString() {
		t.Fatalf("value is not a string. got=%s (%s)", v.Type, v.Inspect())
	}
	if v.AsString() != expected {
		t.Errorf("value has wrong string. got=%q, want=%q", v.AsString(), expected)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"1", 1},
		{"1 + 2", 3},
		{"1 - 2", -1},
		{"10 + 2 * 5", 20},
		{"(10 + 2) * 5", 60},
		{"(100-20)/(2+2)+5*2", 30},
		{"7 / 2", 3.5},
		{"10 % 3", 1},
		{"-7 % 3", -1},
		{"-5 + 10", 5},
		{"--5", 5},
		{"2 * -3", -6},
		{"'3' * 2", 6},
		{"true + 1", 2},
		{"false * 4", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testNumberValue(t, evalExpr(t, tt.input), tt.expected)
		})
	}
}

func TestStringAddition(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"'a' + 'b'", "ab"},
		{"'n=' + 1", "n=1"},
		{"1 + 'x'", "1x"},
		{"'half ' + 0.5", "half 0.5"},
		{"'flag ' + true", "flag true"},
		{"1 + 2 + 'x'", "3x"},
		{"'x' + 1 + 2", "x12"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testStringValue(t, evalExpr(t, tt.input), tt.expected)
		})
	}
}

func TestComparisonAndLogic(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 4", false},
		{"3 >= 4", false},
		{"'10' > 9", true},
		{"1 == 1", true},
		{"1 == '1'", false},
		{"'a' is 'a'", true},
		{"'a' is not 'b'", true},
		{"1 != 2", true},
		{"true == true", true},
		{"true and false", false},
		{"1 and 'x'", true},
		{"false or 0", true},
		{"false or false", false},
		{"not 0", false},
		{"not false", true},
		{"1 < 2 and 2 < 3", true},
		{"1 > 2 or 2 > 3", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testBooleanValue(t, evalExpr(t, tt.input), tt.expected)
		})
	}
}

func TestShowOutput(t *testing.T) {
	_, out := runVM(t, "show 10 + 2 * 5\nshow 7 / 2\nshow 'hi'\nshow 1 == 1\nshow 0 - 0")
	want := "20\n3.5\nhi\ntrue\n0\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRedeclareGlobal(t *testing.T) {
	_, out := runVM(t, "let x be 1\nlet x be 2\nshow x")
	if out != "2\n" {
		t.Errorf("got %q", out)
	}
}

func TestReassignment(t *testing.T) {
	_, out := runVM(t, "let x be 1\nx is x + 1\nx = x * 10\nshow x\nfresh is 5\nshow fresh")
	if out != "20\n5\n" {
		t.Errorf("got %q", out)
	}
}

func TestIfElseChain(t *testing.T) {
	program := `let x be %s
if x > 10 then
  show 'big'
else if x > 0 then
  show 'small'
else if x is 0 then
  show 'zero'
else
  show 'negative'
end
show 'done'`

	tests := []struct {
		value string
		want  string
	}{
		{"50", "big\ndone\n"},
		{"5", "small\ndone\n"},
		{"0", "zero\ndone\n"},
		{"-3", "negative\ndone\n"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			_, out := runVM(t, strings.Replace(program, "%s", tt.value, 1))
			if out != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestIfWithoutElseLeavesStackBalanced(t *testing.T) {
	chunk := compile(t, "if false then\n  show 1\nend\nif true then\n  show 2\nend")
	var out bytes.Buffer
	machine := New()
	machine.SetOutput(&out)
	result, err := machine.Interpret(chunk)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsNil() || machine.StackDepth() != 0 {
		t.Errorf("result %s, stack depth %d", result.Inspect(), machine.StackDepth())
	}
	if out.String() != "2\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestWhileLoop(t *testing.T) {
	_, out := runVM(t, `let i be 0
let total be 0
while i < 5 then
  i is i + 1
  total is total + i
end
show total`)
	if out != "15\n" {
		t.Errorf("got %q", out)
	}
}

func TestWhileFalseRunsZeroTimes(t *testing.T) {
	chunk := compile(t, "while false then\n  show 'never'\nend")
	var out bytes.Buffer
	machine := New()
	machine.SetOutput(&out)
	result, err := machine.Interpret(chunk)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("body ran: %q", out.String())
	}
	if !result.IsNil() || machine.StackDepth() != 0 {
		t.Errorf("result %s, stack depth %d", result.Inspect(), machine.StackDepth())
	}
}

func TestRepeat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple", "let n be 0\nrepeat 3 times then\n  n is n + 1\nend\nshow n", "3\n"},
		{"string count", "let n be 0\nrepeat '2' times then\n  n is n + 1\nend\nshow n", "2\n"},
		{"zero", "repeat 0 times then\n  show 'x'\nend\nshow 'after'", "after\n"},
		{"nested", "let n be 0\nrepeat 2 times then\n  repeat 3 times then\n    n is n + 1\n  end\nend\nshow n", "6\n"},
		{"body locals", "repeat 2 times then\n  let sq be 4\n  show sq\nend", "4\n4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out := runVM(t, tt.input)
			if out != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestRepeatDoesNotLeakGlobals(t *testing.T) {
	chunk := compile(t, "let n be 0\nrepeat 4 times then\n  n is n + 1\nend")
	machine := New()
	if _, err := machine.Interpret(chunk); err != nil {
		t.Fatal(err)
	}
	globals := machine.GetGlobals()
	if len(globals) != 1 {
		t.Errorf("globals = %v", globals)
	}
	if n, _ := machine.GetGlobal("n"); n.AsNumber() != 4 {
		t.Errorf("n = %s", n.Inspect())
	}
}

func TestScopesAndShadowing(t *testing.T) {
	_, out := runVM(t, `let x be 'global'
if true then
  let x be 'outer'
  if true then
    let x be 'inner'
    show x
  end
  show x
  x is 'changed'
  show x
  let x be 'redeclared'
  show x
end
show x`)
	want := "inner\nouter\nchanged\nredeclared\nglobal\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestBlockReassignsGlobal(t *testing.T) {
	_, out := runVM(t, "let c be 0\nwhile c < 3 then\n  c is c + 1\nend\nshow c")
	if out != "3\n" {
		t.Errorf("got %q", out)
	}
}

func TestBlockLocalInaccessibleAfterBlock(t *testing.T) {
	chunk := compile(t, "if true then\n  let y be 5\n  show y\nend\nshow y")
	var out bytes.Buffer
	machine := New()
	machine.SetOutput(&out)
	_, err := machine.Interpret(chunk)
	if err == nil {
		t.Fatal("expected undefined variable error")
	}
	if got := err.Error(); got != "Runtime error: Undefined variable 'y' at line 5" {
		t.Errorf("got %q", got)
	}
	if out.String() != "5\n" {
		t.Errorf("output %q", out.String())
	}
}

func TestGlobalsPersistAcrossRuns(t *testing.T) {
	machine := New()
	var out bytes.Buffer
	machine.SetOutput(&out)
	if _, err := machine.Interpret(compile(t, "let a be 41")); err != nil {
		t.Fatal(err)
	}
	if _, err := machine.Interpret(compile(t, "show a + 1")); err != nil {
		t.Fatal(err)
	}
	if out.String() != "42\n" {
		t.Errorf("got %q", out.String())
	}

	machine.Reset()
	if _, err := machine.Interpret(compile(t, "show a")); err == nil {
		t.Error("expected error after reset")
	}
	if len(machine.ExecutionStats()) == 0 {
		t.Error("stats should record the failed run")
	}
}

func TestLongIfBodyUsesWideJumps(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("let hits be 0\nif true then\n")
	for i := 0; i < 200; i++ {
		sb.WriteString("  hits is hits + 1\n")
	}
	sb.WriteString("end\nshow hits")

	chunk := compile(t, sb.String())
	if chunk.Len() < 256 {
		t.Fatalf("chunk too small to exercise wide jumps: %d", chunk.Len())
	}

	var out bytes.Buffer
	machine := New()
	machine.SetOutput(&out)
	if _, err := machine.Interpret(chunk); err != nil {
		t.Fatal(err)
	}
	if out.String() != "200\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	src := "let a be 1\nrepeat 3 times then\n  if a > 1 then\n    show a\n  else\n    a is a + 1\n  end\nend\nwhile a < 9 then\n  a is a * 2\nend"
	first := compile(t, src)
	second := compile(t, src)
	if !bytes.Equal(first.Code, second.Code) {
		t.Fatal("code differs between compilations")
	}
	if len(first.Lines) != len(first.Code) {
		t.Errorf("lines %d != code %d", len(first.Lines), len(first.Code))
	}
	if len(first.Constants) != len(second.Constants) {
		t.Errorf("constant pools differ")
	}
}

func TestConstantsAreDeduplicated(t *testing.T) {
	chunk := compile(t, "let x be 1\nlet y be 1\nshow x + y + 1\nshow 'x'")
	// 1, "x", "y"
	if len(chunk.Constants) != 3 {
		t.Errorf("constants = %v", chunk.Constants)
	}
	if idx, ok := chunk.Globals["y"]; !ok || chunk.Constants[idx].AsString() != "y" {
		t.Errorf("globals = %v", chunk.Globals)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"show f(1)", "Compile error at line 1: Function calls not implemented"},
		{"let a be 1\nshow 1 + max(a, 2)", "Compile error at line 2: Function calls not implemented"},
	}
	for _, tt := range tests {
		_, err := NewCompiler().Compile(parse(t, tt.input))
		if err == nil {
			t.Errorf("%q: expected error", tt.input)
			continue
		}
		if err.Error() != tt.want {
			t.Errorf("%q: got %q, want %q", tt.input, err.Error(), tt.want)
		}
	}
}

func TestTooManyLocals(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("if true then\n")
	for i := 0; i < MaxLocals+1; i++ {
		sb.WriteString("  let v")
		sb.WriteString(FormatNumber(float64(i)))
		sb.WriteString(" be 1\n")
	}
	sb.WriteString("end\n")

	_, err := NewCompiler().Compile(parse(t, sb.String()))
	if err == nil || !strings.Contains(err.Error(), "Too many local variables in scope") {
		t.Fatalf("got %v", err)
	}
}
