package luma_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Z2ZATL/Luma-CL/internal/vm"
	luma "github.com/Z2ZATL/Luma-CL/pkg/embed"
)

func TestExecute(t *testing.T) {
	var out bytes.Buffer
	machine := luma.New(luma.WithOutput(&out))

	res := machine.Execute("let x be 10 + 2 * 5\nshow x")
	if !res.Success || res.ErrorMessage != "" {
		t.Fatalf("Execute failed: %+v", res)
	}
	if out.String() != "20\n" {
		t.Errorf("output %q", out.String())
	}

	// Globals persist between calls
	res = machine.Execute("show x + 1")
	if !res.Success || out.String() != "20\n21\n" {
		t.Errorf("second run: %+v, %q", res, out.String())
	}

	res = machine.Execute("show 1 / 0")
	if res.Success || res.ErrorMessage != "Runtime error: Division by zero" {
		t.Errorf("expected failure, got %+v", res)
	}
}

func TestGetSet(t *testing.T) {
	machine := luma.New(luma.WithOutput(&bytes.Buffer{}))

	if err := machine.Set("name", "luma"); err != nil {
		t.Fatal(err)
	}
	if err := machine.Set("count", 3); err != nil {
		t.Fatal(err)
	}
	if err := machine.Set("flag", true); err != nil {
		t.Fatal(err)
	}
	if err := machine.SetNumber("rate", 0.5); err != nil {
		t.Fatal(err)
	}
	if err := machine.Set("bad", []int{1}); err == nil {
		t.Error("expected error for slice")
	}

	if res := machine.Execute("let total be count * rate\nlet greeting be name + '!'"); !res.Success {
		t.Fatal(res.ErrorMessage)
	}

	if got, ok := machine.Get("greeting"); !ok || got != "luma!" {
		t.Errorf("greeting = %v, %t", got, ok)
	}
	if got, ok := machine.Get("flag"); !ok || got != true {
		t.Errorf("flag = %v", got)
	}
	n, err := machine.GetNumber("total")
	if err != nil || n != 1.5 {
		t.Errorf("total = %v, %v", n, err)
	}
	if _, ok := machine.Get("missing"); ok {
		t.Error("missing global found")
	}
	if _, err := machine.GetNumber("missing"); err == nil {
		t.Error("expected error for missing global")
	}

	// GetNumber coerces
	machine.Set("text", "42")
	if n, err := machine.GetNumber("text"); err != nil || n != 42 {
		t.Errorf("text = %v, %v", n, err)
	}

	globals := machine.Globals()
	if len(globals) != 7 {
		t.Errorf("globals = %v", globals)
	}
}

func TestEval(t *testing.T) {
	machine := luma.New(luma.WithOutput(&bytes.Buffer{}))
	res, err := machine.Eval("let a be 6")
	if err != nil || res != nil {
		t.Fatalf("Eval = %v, %v", res, err)
	}

	tests := []struct {
		expr string
		want interface{}
	}{
		{"a * 7", float64(42)},
		{"'a=' + a", "a=6"},
		{"a > 5 and a < 10", true},
	}
	for _, tt := range tests {
		got, err := machine.EvalExpression(tt.expr)
		if err != nil {
			t.Errorf("%s: %v", tt.expr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s = %v (%T), want %v", tt.expr, got, got, tt.want)
		}
	}

	if _, err := machine.EvalExpression("nope + 1"); err == nil || !strings.Contains(err.Error(), "Undefined variable 'nope'") {
		t.Errorf("got %v", err)
	}
	if _, err := machine.Eval("let = 2"); err == nil {
		t.Error("expected parse error")
	}
}

func TestClose(t *testing.T) {
	machine := luma.New(luma.WithOutput(&bytes.Buffer{}))
	machine.Execute("let x be 1")
	if err := machine.Close(); err != nil {
		t.Fatal(err)
	}

	res := machine.Execute("show 1")
	if res.Success || res.ErrorMessage != "vm closed" {
		t.Errorf("got %+v", res)
	}
	if _, err := machine.Eval("show 1"); !errors.Is(err, luma.ErrClosed) {
		t.Errorf("Eval after close: %v", err)
	}
	if err := machine.Set("x", 1); !errors.Is(err, luma.ErrClosed) {
		t.Errorf("Set after close: %v", err)
	}
	if _, ok := machine.Get("x"); ok {
		t.Error("Get after close")
	}
	if !errors.Is(machine.Close(), luma.ErrClosed) {
		t.Error("double close")
	}
}

func TestIDsAreUnique(t *testing.T) {
	a, b := luma.New(), luma.New()
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("ids %q %q", a.ID(), b.ID())
	}
}

func TestWithContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	machine := luma.New(luma.WithContext(ctx), luma.WithOutput(&bytes.Buffer{}))
	res := machine.Execute("while true then\nend")
	if res.Success || !strings.Contains(res.ErrorMessage, "Execution cancelled") {
		t.Errorf("got %+v", res)
	}
}

func TestWithObserverAndStats(t *testing.T) {
	steps := 0
	machine := luma.New(
		luma.WithOutput(&bytes.Buffer{}),
		luma.WithObserver(vm.ObserverFunc(func(int, vm.Opcode, time.Duration) { steps++ })),
	)
	machine.Execute("repeat 5 times then\n  show 1\nend")
	if steps == 0 {
		t.Error("observer not called")
	}
	stats := machine.Stats()
	if len(stats) == 0 || stats[0].Count < 5 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.luma")
	if err := os.WriteFile(src, []byte("let v be 3\nshow v"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	machine := luma.New(luma.WithOutput(&out))
	if err := machine.LoadFile(src); err != nil {
		t.Fatal(err)
	}
	if out.String() != "3\n" {
		t.Errorf("output %q", out.String())
	}

	// Compiled chunk files load too
	chunk := vm.NewChunk()
	if err := chunk.WriteConstant(vm.StringVal("from chunk"), 1); err != nil {
		t.Fatal(err)
	}
	chunk.WriteOp(vm.OP_PRINT, 1)
	chunk.WriteOp(vm.OP_RETURN, 1)
	data, err := chunk.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	bin := filepath.Join(dir, "prog.lumac")
	if err := os.WriteFile(bin, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := machine.LoadFile(bin); err != nil {
		t.Fatal(err)
	}
	if out.String() != "3\nfrom chunk\n" {
		t.Errorf("output %q", out.String())
	}
}

func TestMarshaller(t *testing.T) {
	m := luma.NewMarshaller()

	toTests := []struct {
		in   interface{}
		want vm.Value
	}{
		{nil, vm.NilVal()},
		{int8(-3), vm.NumberVal(-3)},
		{uint16(7), vm.NumberVal(7)},
		{float32(1.5), vm.NumberVal(1.5)},
		{"s", vm.StringVal("s")},
		{false, vm.BoolVal(false)},
		{vm.NumberVal(9), vm.NumberVal(9)},
	}
	for _, tt := range toTests {
		got, err := m.ToValue(tt.in)
		if err != nil || !got.Equals(tt.want) {
			t.Errorf("ToValue(%v) = %s, %v", tt.in, got.Inspect(), err)
		}
	}
	if _, err := m.ToValue(map[string]int{}); err == nil {
		t.Error("expected error for map")
	}

	fromTests := []struct {
		in     vm.Value
		target reflect.Type
		want   interface{}
	}{
		{vm.NumberVal(4), nil, float64(4)},
		{vm.NumberVal(4), reflect.TypeOf(0), 4},
		{vm.NumberVal(4), reflect.TypeOf(uint8(0)), uint8(4)},
		{vm.NumberVal(2.5), reflect.TypeOf(float32(0)), float32(2.5)},
		{vm.StringVal("x"), reflect.TypeOf(""), "x"},
		{vm.BoolVal(true), nil, true},
		{vm.NilVal(), nil, nil},
	}
	for _, tt := range fromTests {
		got, err := m.FromValue(tt.in, tt.target)
		if err != nil || got != tt.want {
			t.Errorf("FromValue(%s, %v) = %v (%T), %v", tt.in.Inspect(), tt.target, got, got, err)
		}
	}

	errTests := []struct {
		in     vm.Value
		target reflect.Type
	}{
		{vm.NumberVal(2.5), reflect.TypeOf(0)},
		{vm.NumberVal(-1), reflect.TypeOf(uint(0))},
		{vm.NumberVal(300), reflect.TypeOf(int8(0))},
		{vm.StringVal("x"), reflect.TypeOf(0)},
		{vm.BoolVal(true), reflect.TypeOf("")},
	}
	for _, tt := range errTests {
		if _, err := m.FromValue(tt.in, tt.target); err == nil {
			t.Errorf("FromValue(%s, %v): expected error", tt.in.Inspect(), tt.target)
		}
	}
}
