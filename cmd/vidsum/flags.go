package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage marks invalid command-line usage.
var ErrUsage = errors.New("invalid usage")

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	envFile   string
	logLevel  string
	logFormat string
	quiet     bool
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common      commonFlags
	addr        string
	workers     int
	maxSessions int
	timeout     string
}

// submitFlags holds all flags for the submit command.
type submitFlags struct {
	common   commonFlags
	fileMode bool
	link     string
	file     string
	output   string
	markdown string
	timeout  string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVar(&f.envFile, "env-file", "", "dotenv file with endpoint variables")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseServeFlags parses arguments of the serve command.
func parseServeFlags(args []string) (*serveFlags, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve")
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default :8080)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "browser pool size (0 = auto)")
	fs.IntVar(&f.maxSessions, "max-sessions", 0, "maximum live sessions")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "service request timeout (e.g. 10m)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}
	if f.workers < 0 || f.maxSessions < 0 {
		return nil, fmt.Errorf("%w: --workers and --max-sessions must not be negative", ErrUsage)
	}
	return f, nil
}

// parseSubmitFlags parses arguments of the submit command. A single
// positional argument is accepted as the link.
func parseSubmitFlags(args []string) (*submitFlags, error) {
	f := &submitFlags{}
	fs := newFlagSet("submit")
	addCommonFlags(fs, &f.common)
	fs.StringVarP(&f.link, "link", "l", "", "link to a hosted video")
	fs.StringVarP(&f.file, "file", "f", "", "video file to upload")
	fs.StringVarP(&f.output, "output", "o", defaultOutput, "PDF output path")
	fs.StringVar(&f.markdown, "markdown", "", "also write the summary as Markdown to this path")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "service request timeout (e.g. 10m)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	switch fs.NArg() {
	case 0:
	case 1:
		if f.link != "" {
			return nil, fmt.Errorf("%w: link given twice", ErrUsage)
		}
		f.link = fs.Arg(0)
	default:
		return nil, fmt.Errorf("%w: too many arguments", ErrUsage)
	}

	linkSet := fs.Changed("link") || fs.NArg() == 1
	fileSet := fs.Changed("file")
	if linkSet == fileSet {
		return nil, fmt.Errorf("%w: exactly one of --link or --file is required", ErrUsage)
	}
	f.fileMode = fileSet
	if f.output == "" {
		return nil, fmt.Errorf("%w: --output cannot be empty", ErrUsage)
	}
	return f, nil
}
