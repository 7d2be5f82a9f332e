// Package cli implements the luma command.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/Z2ZATL/Luma-CL/internal/analyzer"
	"github.com/Z2ZATL/Luma-CL/internal/backend"
	"github.com/Z2ZATL/Luma-CL/internal/config"
	"github.com/Z2ZATL/Luma-CL/internal/pipeline"
	"github.com/Z2ZATL/Luma-CL/internal/server"
	"github.com/Z2ZATL/Luma-CL/internal/vm"
)

// app carries the streams and settings of one invocation.
type app struct {
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	settings *config.Settings
}

// Run executes the luma command line and returns the exit code.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(stderr, "Internal error: %v\n", r)
			fmt.Fprintln(stderr, "This is a bug. Please report it.")
			code = 1
		}
	}()

	c := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	fs := flag.NewFlagSet("luma", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = c.printUsage
	configPath := fs.String("config", "", "settings file (default: nearest luma.yaml/luma.toml)")
	var verbosity verbosityFlag
	fs.Var(&verbosity, "v", "increase log verbosity (repeatable)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	settings, err := loadSettings(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	c.settings = settings
	configureLogging(settings.Log, int(verbosity))

	rest := fs.Args()
	if len(rest) == 0 {
		return c.repl()
	}

	switch rest[0] {
	case "run":
		return c.handleRun(rest[1:])
	case "compile":
		return c.handleCompile(rest[1:])
	case "disasm":
		return c.handleDisasm(rest[1:])
	case "serve":
		return c.handleServe(rest[1:])
	case "profile":
		return c.handleProfile(rest[1:])
	case "fmt":
		return c.handleFmt(rest[1:])
	case "help", "-help", "--help":
		c.printUsage()
		return 0
	case "version", "-version", "--version":
		fmt.Fprintf(stdout, "luma %s\n", config.Version)
		return 0
	}

	// A bare path runs the file
	return c.handleRun(rest)
}

func loadSettings(path string) (*config.Settings, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.FindAndLoad(".")
}

func (c *app) printUsage() {
	fmt.Fprintf(c.stdout, `%s v%s

Usage:
  luma [flags]                                  start the REPL
  luma [flags] <file>                           run a source or chunk file
  luma [flags] run [-profile-db path] [-time] <file>
  luma [flags] compile [-o out] <file>          write a %s chunk
  luma [flags] disasm <file>                    print the bytecode listing
  luma [flags] fmt [-w] <file>                  print the file in canonical layout
  luma [flags] serve [-addr addr] [-grpc addr]  start the network service
  luma [flags] profile [-db path] [-n N] [-run id]
                                                list stored profile runs

Flags:
  -config path   settings file
  -v             increase log verbosity (repeatable)
`, config.LanguageName, config.Version, config.ChunkFileExt)
}

func (c *app) fail(err error) int {
	fmt.Fprintf(c.stderr, "Error: %s\n", err)
	return 1
}

// newMachine builds a VM configured from settings.
func (c *app) newMachine() *vm.VM {
	machine := vm.New()
	machine.SetHotThreshold(uint64(c.settings.VM.HotThreshold))
	machine.SetTrace(c.settings.VM.Trace)
	return machine
}

// loadInput reads path into a pipeline context. Chunk files skip the
// front end.
func loadInput(path string) (*pipeline.PipelineContext, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	ctx := pipeline.NewPipelineContext(string(data))
	if abs, err := filepath.Abs(path); err == nil {
		ctx.FilePath = abs
	} else {
		ctx.FilePath = path
	}
	if vm.IsChunkFile(data) {
		chunk, err := vm.DeserializeChunk(data)
		if err != nil {
			return nil, err
		}
		ctx.SourceCode = ""
		ctx.Chunk = chunk
	}
	return ctx, nil
}

func singleFile(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("%s expects exactly one file", fs.Name())
	}
	return fs.Arg(0), nil
}

// handleRun runs a source or chunk file, optionally recording a profile.
func (c *app) handleRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	profileDB := fs.String("profile-db", c.settings.Analyzer.ProfileDB, "record a profile run into this database")
	showTime := fs.Bool("time", false, "print the execution time")
	path, err := singleFile(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return c.fail(err)
	}

	ctx, err := loadInput(path)
	if err != nil {
		return c.fail(err)
	}
	if ctx.Chunk == nil && strings.TrimSpace(ctx.SourceCode) == "" {
		fmt.Fprintln(c.stdout, "Code executed successfully!")
		return 0
	}
	ctx.Output = c.stdout

	machine := c.newMachine()
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	machine.SetContext(sigCtx)

	var perf *analyzer.PerformanceAnalyzer
	if *profileDB != "" {
		perf = analyzer.New()
		perf.SetHotThreshold(uint64(c.settings.Analyzer.HotThreshold))
		perf.SetJITThreshold(uint64(c.settings.Analyzer.JITThreshold))
		machine.SetObserver(perf)
	}

	start := time.Now()
	ctx = backend.Standard(backend.NewVM(machine)).Run(ctx)
	elapsed := time.Since(start)

	if *showTime {
		fmt.Fprintf(c.stdout, "\nExecution time: %.7fms\n", float64(elapsed)/float64(time.Millisecond))
	}

	if perf != nil {
		if err := c.saveProfile(*profileDB, path, start, elapsed, perf); err != nil {
			fmt.Fprintf(c.stderr, "Warning: profile not saved: %s\n", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return c.fail(err)
	}
	return 0
}

func (c *app) saveProfile(dbPath, source string, start time.Time, elapsed time.Duration, perf *analyzer.PerformanceAnalyzer) error {
	store, err := analyzer.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Save(source, start, elapsed, perf)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stderr, "Profile %s saved to %s (%d hot spots)\n", run.ID, store.Path(), run.HotCount)
	return nil
}

// handleCompile compiles a source file to a chunk file.
func (c *app) handleCompile(args []string) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	output := fs.String("o", "", "output path (default: <file>"+config.ChunkFileExt+")")
	sourcePath, err := singleFile(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return c.fail(err)
	}

	ctx, err := loadInput(sourcePath)
	if err != nil {
		return c.fail(err)
	}
	ctx = backend.Frontend().Run(ctx)
	if err := ctx.Err(); err != nil {
		return c.fail(err)
	}

	data, err := ctx.Chunk.Serialize()
	if err != nil {
		return c.fail(err)
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = config.TrimSourceExt(sourcePath) + config.ChunkFileExt
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return c.fail(fmt.Errorf("writing chunk file: %w", err))
	}

	fmt.Fprintf(c.stdout, "Compiled %s -> %s (%d bytes)\n", sourcePath, outputPath, len(data))
	return 0
}

// handleDisasm prints the bytecode listing of a source or chunk file.
func (c *app) handleDisasm(args []string) int {
	fs := flag.NewFlagSet("disasm", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	path, err := singleFile(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return c.fail(err)
	}

	ctx, err := loadInput(path)
	if err != nil {
		return c.fail(err)
	}
	ctx.Output = c.stdout
	ctx = backend.Standard(backend.NewDisasm()).Run(ctx)
	if err := ctx.Err(); err != nil {
		return c.fail(err)
	}
	return 0
}

// handleServe runs the network service until interrupted.
func (c *app) handleServe(args []string) int {
	settings := c.settings.Server

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.StringVar(&settings.Addr, "addr", settings.Addr, "HTTP listen address")
	fs.StringVar(&settings.GRPCAddr, "grpc", settings.GRPCAddr, "gRPC listen address (disabled when empty)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	srv := server.New(settings)
	defer srv.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintf(c.stdout, "Luma server listening on %s\n", settings.Addr)
	if err := srv.ListenAndServe(ctx); err != nil {
		return c.fail(err)
	}
	return 0
}
