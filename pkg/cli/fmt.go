package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/Z2ZATL/Luma-CL/internal/prettyprinter"
)

// handleFmt prints a source file in canonical layout, or rewrites it in
// place with -w.
func (c *app) handleFmt(args []string) int {
	fs := flag.NewFlagSet("fmt", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	write := fs.Bool("w", false, "write the result back to the file")
	path, err := singleFile(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return c.fail(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c.fail(err)
	}
	formatted, err := prettyprinter.Format(string(data))
	if err != nil {
		return c.fail(err)
	}

	if !*write {
		fmt.Fprint(c.stdout, formatted)
		return 0
	}
	if formatted == string(data) {
		return 0
	}
	info, err := os.Stat(path)
	if err != nil {
		return c.fail(err)
	}
	if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
		return c.fail(err)
	}
	log.Infof("formatted %s", path)
	return 0
}
