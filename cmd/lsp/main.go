package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbosity := flag.Int("v", 1, "log verbosity")
	logFile := flag.String("log", "", "log file (default: stderr)")
	flag.Parse()

	// stdout carries the protocol, so logs go to stderr or a file
	var path *string
	if *logFile != "" {
		path = logFile
	}
	commonlog.Configure(*verbosity, path)

	if err := NewLanguageServer().Run(); err != nil {
		fmt.Fprintf(os.Stderr, "luma-lsp: %s\n", err)
		os.Exit(1)
	}
}
