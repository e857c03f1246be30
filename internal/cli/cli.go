package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/acqparamgo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated
// app.Config, a boolean indicating if the program should exit cleanly, or
// an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("acqparamgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
acqparamgo - an acquisition-parameter engine for spectrometer
parameter-definition files.

Usage:
  acqparamgo [options] [PAR_PATH]

Arguments:
  PAR_PATH
    Path to a single .pdef definition file or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	parFlag := flagSet.String("par", "", "Path to the definition file or directory.")
	pFlag := flagSet.String("p", "", "Path to the definition file or directory (shorthand).")
	valuesFlag := flagSet.String("values", "", "JCAMP-DX acqus file to seed parameter values from.")
	vdlistFlag := flagSet.String("vdlist", "", "Variable-delay list file, loaded as the VD array.")
	profileFlag := flagSet.String("profile", "", "YAML run profile.")
	checkFlag := flagSet.Bool("check", false, "Load, validate and cycle-check the definitions, then exit.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	var sets stringList
	flagSet.Var(&sets, "set", "Change a parameter, as NAME=VALUE. May be repeated.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := ""
	if *parFlag != "" {
		path = *parFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		ParPath:     path,
		ValuesPath:  *valuesFlag,
		VDListPath:  *vdlistFlag,
		Sets:        sets,
		ProfilePath: *profileFlag,
		CheckOnly:   *checkFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
