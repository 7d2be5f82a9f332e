package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Z2ZATL/Luma-CL/internal/analyzer"
	"github.com/Z2ZATL/Luma-CL/internal/config"
	"github.com/Z2ZATL/Luma-CL/internal/vm"
)

const topHotspots = 10

// hotspotStatus classifies an execution count for the stats table.
func hotspotStatus(count uint64) string {
	switch {
	case count > config.HotLoopDefault:
		return "HOT - JIT Candidate"
	case count > config.WarmThreshold:
		return "Warm"
	default:
		return "Cold"
	}
}

// printStats writes the top hot spots, most executed first.
func printStats(w io.Writer, stats []vm.ExecutionStat) {
	if len(stats) == 0 {
		fmt.Fprintln(w, "No execution statistics available.")
		return
	}

	fmt.Fprintln(w, "Execution Statistics (Top 10 Hot Spots):")
	fmt.Fprintf(w, "%-10s %-15s %s\n", "Offset", "Executions", "Status")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	for i, s := range stats {
		if i == topHotspots {
			break
		}
		fmt.Fprintf(w, "%-10d %-15d %s\n", s.Offset, s.Count, hotspotStatus(s.Count))
	}
}

// handleProfile lists runs stored by `luma run -profile-db`.
func (c *app) handleProfile(args []string) int {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	dbPath := fs.String("db", c.settings.Analyzer.ProfileDB, "profile database")
	limit := fs.Int("n", 20, "number of runs to list (0 for all)")
	runID := fs.String("run", "", "show the hot spots of one run")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *dbPath == "" {
		return c.fail(errors.New("no profile database (use -db or analyzer.profile_db)"))
	}

	store, err := analyzer.OpenStore(*dbPath)
	if err != nil {
		return c.fail(err)
	}
	defer store.Close()

	if *runID != "" {
		hotspots, err := store.Hotspots(*runID)
		if err != nil {
			return c.fail(err)
		}
		stats := make([]vm.ExecutionStat, len(hotspots))
		for i, h := range hotspots {
			stats[i] = vm.ExecutionStat{Offset: h.Offset, Count: h.Count}
		}
		printStats(c.stdout, stats)
		return 0
	}

	runs, err := store.Runs(*limit)
	if err != nil {
		return c.fail(err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.stdout, "No profile runs recorded.")
		return 0
	}

	fmt.Fprintf(c.stdout, "%-36s  %-19s  %-12s  %-12s  %-5s  %s\n", "Run", "Started", "Duration", "Executions", "Hot", "Source")
	for _, r := range runs {
		fmt.Fprintf(c.stdout, "%-36s  %-19s  %-12s  %-12d  %-5d  %s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration.Round(time.Microsecond),
			r.TotalExecutions,
			r.HotCount,
			r.Source,
		)
	}
	return 0
}
