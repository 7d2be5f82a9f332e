package cli

import (
	"strconv"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/Z2ZATL/Luma-CL/internal/config"
)

var log = commonlog.GetLogger("luma.cli")

// verbosityFlag counts repeated -v flags.
type verbosityFlag int

func (v *verbosityFlag) String() string {
	return strconv.Itoa(int(*v))
}

func (v *verbosityFlag) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if on {
		*v++
	}
	return nil
}

func (v *verbosityFlag) IsBoolFlag() bool { return true }

// configureLogging applies the larger of the flag and settings verbosity.
func configureLogging(settings config.LogSettings, flagVerbosity int) {
	verbosity := settings.Verbosity
	if flagVerbosity > verbosity {
		verbosity = flagVerbosity
	}

	var path *string
	if settings.File != "" {
		path = &settings.File
	}
	commonlog.Configure(verbosity, path)
}
