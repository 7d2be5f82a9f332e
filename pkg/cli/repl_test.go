package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Z2ZATL/Luma-CL/internal/vm"
)

func TestREPLPersistsGlobals(t *testing.T) {
	input := "let x be 2\n\nx is x * 21\nshow x\nexit\nshow 'unreachable'\n"

	code, stdout, stderr := runCLI(t, input)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	// Piped input gets no banner and no prompt
	if stdout != "42\nGoodbye!\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestREPLErrorsContinue(t *testing.T) {
	input := "show missing\nshow 1 / 0\nshow 'still here'\n"

	code, stdout, stderr := runCLI(t, input)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if stdout != "still here\n" {
		t.Errorf("stdout = %q", stdout)
	}
	wantErr := "Error: Runtime error: Undefined variable 'missing' at line 1\n" +
		"Error: Runtime error: Division by zero\n"
	if stderr != wantErr {
		t.Errorf("stderr = %q, want %q", stderr, wantErr)
	}
}

func TestREPLCommands(t *testing.T) {
	for _, quit := range []string{"exit", "quit", ":q"} {
		_, stdout, _ := runCLI(t, quit+"\n")
		if stdout != "Goodbye!\n" {
			t.Errorf("%s: stdout = %q", quit, stdout)
		}
	}

	_, stdout, _ := runCLI(t, ":help\n")
	if !strings.Contains(stdout, "REPL Commands:") || !strings.Contains(stdout, "stats, :stats") {
		t.Errorf("help output = %q", stdout)
	}

	_, stdout, _ = runCLI(t, "stats\n")
	if stdout != "No execution statistics available.\n" {
		t.Errorf("empty stats = %q", stdout)
	}

	_, stdout, _ = runCLI(t, "let i be 0\nrepeat 3 times then i is i + 1 end\n:stats\n")
	if !strings.HasPrefix(stdout, "Execution Statistics (Top 10 Hot Spots):\nOffset     Executions      Status\n") {
		t.Errorf("stats output = %q", stdout)
	}
}

func TestPrintStats(t *testing.T) {
	stats := make([]vm.ExecutionStat, 0, 12)
	stats = append(stats,
		vm.ExecutionStat{Offset: 12, Count: 1001},
		vm.ExecutionStat{Offset: 3, Count: 1000},
		vm.ExecutionStat{Offset: 7, Count: 101},
		vm.ExecutionStat{Offset: 9, Count: 100},
	)
	for i := 0; i < 8; i++ {
		stats = append(stats, vm.ExecutionStat{Offset: 20 + i, Count: 1})
	}

	var buf bytes.Buffer
	printStats(&buf, stats)
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")

	if len(lines) != 3+10 {
		t.Fatalf("got %d lines, want header plus 10 rows:\n%s", len(lines), buf.String())
	}
	if lines[2] != strings.Repeat("-", 40) {
		t.Errorf("separator = %q", lines[2])
	}
	want := []string{
		"12         1001            HOT - JIT Candidate",
		"3          1000            Warm",
		"7          101             Warm",
		"9          100             Cold",
	}
	for i, w := range want {
		if lines[3+i] != w {
			t.Errorf("row %d = %q, want %q", i, lines[3+i], w)
		}
	}
}
