package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/Z2ZATL/Luma-CL/internal/backend"
	"github.com/Z2ZATL/Luma-CL/internal/config"
	"github.com/Z2ZATL/Luma-CL/internal/pipeline"
)

const replPrompt = "luma> "

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// repl reads one statement per line. Globals persist between lines. The
// banner and prompt are only shown on a terminal so piped input produces
// clean output.
func (c *app) repl() int {
	interactive := isTerminal(c.stdin)
	if interactive {
		fmt.Fprintf(c.stdout, "%s v%s\n", config.LanguageName, config.Version)
		fmt.Fprintln(c.stdout, "Type 'exit' to quit, 'help' for commands")
	}

	machine := c.newMachine()
	run := backend.Standard(backend.NewVM(machine))

	scanner := bufio.NewScanner(c.stdin)
	for {
		if interactive {
			fmt.Fprint(c.stdout, replPrompt)
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				fmt.Fprintf(c.stderr, "Error reading input: %s\n", err)
				return 1
			}
			return 0
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "exit", "quit", ":q":
			fmt.Fprintln(c.stdout, "Goodbye!")
			return 0
		case "help", ":help":
			printReplHelp(c.stdout)
			continue
		case "stats", ":stats":
			printStats(c.stdout, machine.ExecutionStats())
			continue
		}

		ctx := pipeline.NewPipelineContext(input)
		ctx.Output = c.stdout
		if err := run.Run(ctx).Err(); err != nil {
			fmt.Fprintf(c.stderr, "Error: %s\n", err)
		}
	}
}

func printReplHelp(w io.Writer) {
	fmt.Fprintf(w, `%s REPL Commands:
  help, :help    - Show this help message
  stats, :stats  - Show execution statistics
  exit, quit, :q - Exit the REPL

Language Syntax:
  let <name> be <value>  - Assign value to variable
  <name> is <value>      - Reassign variable
  <name> = <value>       - Reassign variable
  show <expression>      - Display result of expression
  # <comment>            - Comment (ignored)
  ## ... ##              - Multi-line comment

Control Flow:
  if <condition> then ... else ... end - Conditional statements
  while <condition> then ... end       - Loop while condition is true
  repeat <count> times then ... end    - Loop specific number of times

Operators: + - * / %% ( ) == != > < >= <= and or not

Examples:
  let x be 42
  x = x + 1
  show x
  if x > 40 then show "Large number" end
`, config.LanguageName)
}
