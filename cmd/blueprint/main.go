package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/alexchoi0/blueprint-engine/internal/config"
	"github.com/alexchoi0/blueprint-engine/internal/repl"
	"github.com/alexchoi0/blueprint-engine/internal/runtime"
	"github.com/alexchoi0/blueprint-engine/internal/value"
)

var (
	BuildDate = "unknown"
	Commit    = "unknown"

	help    bool
	version bool
	// logging
	logLevel string
	logFile  string
	// runtime config
	workers int
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	// scheduler config
	flag.IntVar(&workers, "workers", 0, "Worker pool size (0 uses one slot per logical CPU)")
	// log config
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	if version {
		printVersion()
		return
	}
	if help {
		printHelp()
		return
	}

	os.Exit(run())
}

func run() int {
	script := flag.Arg(0)

	root := "."
	if script != "" {
		root = filepath.Dir(script)
	}
	cfg, err := config.Load(root)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	cfg.Root = root
	if script != "" {
		cfg.Args = flag.Args()[1:]
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(cfg.LogLevel),
	}
	logWriter := configureLogWriter()
	slog.SetDefault(slog.New(slog.NewJSONHandler(logWriter, loggerOptions)))

	r := runtime.NewRuntime(cfg)
	defer r.Close()

	if script == "" {
		if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			repl.Start(r, os.Stdout)
			return 0
		}
		printHelp()
		return 2
	}

	if _, err := r.RunFile(script); err != nil {
		var errv *value.Error
		if errors.As(err, &errv) {
			fmt.Fprintln(os.Stderr, errv.Inspect())
			if errv.ErrKind == value.UserFail {
				return 1
			}
			return 3
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	return 0
}

func configureLogWriter() *os.File {
	if logFile == "" {
		return os.Stderr
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr
	}
	w, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
		return os.Stderr
	}
	return w
}

func printVersion() {
	fmt.Printf("blueprint version 'v%s' %s %s\n", runtime.Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: blueprint [options] [script.bp [args...]]

Options:
  -workers <n>       Worker pool size. Default is one slot per logical CPU.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: debug, info, warn, error.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Details:
Blueprint is a scripting runtime where native calls never block a worker.
Settings also load from blueprint.toml next to the script (or any parent
directory); BLUEPRINT_HOME locates the std library for load("std:...").

Examples:
  blueprint                     Start the interactive session
  blueprint build.bp            Execute the provided script
  blueprint build.bp arg1 arg2  Execute the script with arguments

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, runtime.Version, BuildDate, Commit)
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
