package main

import (
	"os"

	"github.com/Z2ZATL/Luma-CL/pkg/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
