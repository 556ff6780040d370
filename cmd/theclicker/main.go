package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"theclicker/internal/config"
)

const (
	cmdListDevices  = "list-devices"
	cmdFindKeycodes = "find-keycodes"
)

type options struct {
	debug      bool
	beep       bool
	clearCache bool
	configPath string
	logLevel   slog.Level

	command string
	run     config.Config
	wait    time.Duration
}

func newSlogLogger(out io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid --log-level %q (expected debug|info|warning|error)", value)
	}
}

// Flags with a short and a long spelling share one variable.
func stringFlag(flags *flag.FlagSet, p *string, short, long, value, usage string) {
	flags.StringVar(p, short, value, usage)
	flags.StringVar(p, long, value, usage)
}

func uintFlag(flags *flag.FlagSet, p *uint64, short, long string, value uint64, usage string) {
	flags.Uint64Var(p, short, value, usage)
	flags.Uint64Var(p, long, value, usage)
}

func boolFlag(flags *flag.FlagSet, p *bool, short, long string, usage string) {
	flags.BoolVar(p, short, false, usage)
	flags.BoolVar(p, long, false, usage)
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	var logLevelRaw string

	flags := flag.NewFlagSet("theclicker", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.BoolVar(&opts.debug, "debug", false, "Log every input event (same as --log-level debug).")
	flags.BoolVar(&opts.beep, "beep", false, "Beep when the autoclicker state changes.")
	flags.BoolVar(&opts.clearCache, "clear-cache", false, "Forget the last interactive setup.")
	flags.StringVar(&opts.configPath, "config", "", "Run from a .yaml, .toml or .json file instead of subcommand flags.")
	flags.StringVar(&logLevelRaw, "log-level", "info", "Log verbosity. Allowed: debug, info, warning, error.")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: theclicker [flags] [run|run-legacy|list-devices|find-keycodes] [command flags]")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return opts, err
	}

	level, err := parseLogLevel(logLevelRaw)
	if err != nil {
		return opts, err
	}
	if opts.debug {
		level = slog.LevelDebug
	}
	opts.logLevel = level

	rest := flags.Args()
	if len(rest) == 0 {
		return opts, nil
	}
	if opts.configPath != "" {
		return opts, fmt.Errorf("--config cannot be combined with the %s subcommand", rest[0])
	}

	opts.command = rest[0]
	opts.run = config.Default()
	sub := flag.NewFlagSet("theclicker "+opts.command, flag.ContinueOnError)
	sub.SetOutput(stderr)

	switch opts.command {
	case config.CommandRun:
		opts.run.Command = config.CommandRun
		stringFlag(sub, &opts.run.Device, "d", "device-query", "", "Device path (/dev/input/eventN, by-id link) or device name.")
		uintFlag(sub, &opts.run.CooldownMS, "c", "cooldown", config.DefaultCooldownMS, "Milliseconds between clicks.")
		uintFlag(sub, &opts.run.CooldownPressRelease, "C", "cooldown-press-release", 0, "Milliseconds between press and release.")
		stringFlag(sub, &opts.run.Left, "l", "left-bind", "", "Key code or name that drives the left autoclicker.")
		stringFlag(sub, &opts.run.Middle, "m", "middle-bind", "", "Key code or name that drives the middle autoclicker.")
		stringFlag(sub, &opts.run.Right, "r", "right-bind", "", "Key code or name that drives the right autoclicker.")
		stringFlag(sub, &opts.run.LockUnlock, "T", "lock-unlock-bind", "", "Key code or name that locks and unlocks the other bindings.")
		boolFlag(sub, &opts.run.Hold, "H", "hold", "Click only while the binding is held instead of toggling.")
		sub.BoolVar(&opts.run.Grab, "grab", false, "Grab the device and forward every unbound event through the virtual device.")
		sub.DurationVar(&opts.wait, "wait", 0, "Wait this long for the device to appear.")
	case config.CommandRunLegacy:
		opts.run.Command = config.CommandRunLegacy
		stringFlag(sub, &opts.run.Device, "d", "device-query", "", "Legacy mouse device, e.g. /dev/input/mouse0.")
		uintFlag(sub, &opts.run.CooldownMS, "c", "cooldown", config.DefaultCooldownMS, "Milliseconds between clicks.")
		uintFlag(sub, &opts.run.CooldownPressRelease, "C", "cooldown-press-release", 0, "Milliseconds between press and release.")
	case cmdFindKeycodes:
		stringFlag(sub, &opts.run.Device, "d", "device-query", "", "Device path or name to watch.")
	case cmdListDevices:
	default:
		return opts, fmt.Errorf("unknown command %q", opts.command)
	}

	if err := sub.Parse(rest[1:]); err != nil {
		return opts, err
	}
	if sub.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(sub.Args(), " "))
	}

	switch opts.command {
	case config.CommandRun, config.CommandRunLegacy:
		if err := opts.run.Validate(); err != nil {
			return opts, err
		}
	case cmdFindKeycodes:
		if strings.TrimSpace(opts.run.Device) == "" {
			return opts, fmt.Errorf("find-keycodes needs -d <device>")
		}
	}
	return opts, nil
}

// commandLine renders cfg as the subcommand that reproduces it.
func commandLine(cfg config.Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s -d %q -c %d -C %d", cfg.Command, cfg.Device, cfg.CooldownMS, cfg.CooldownPressRelease)
	for _, bind := range []struct{ flag, value string }{
		{"-l", cfg.Left},
		{"-m", cfg.Middle},
		{"-r", cfg.Right},
		{"-T", cfg.LockUnlock},
	} {
		if bind.value != "" {
			fmt.Fprintf(&b, " %s %s", bind.flag, bind.value)
		}
	}
	if cfg.Hold {
		b.WriteString(" -H")
	}
	if cfg.Grab {
		b.WriteString(" --grab")
	}
	return b.String()
}

// resolveRun picks the run to execute when no subcommand was given: the
// --config file, then the cache, then interactive setup.
func resolveRun(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer, logger *slog.Logger) (config.Config, error) {
	if opts.configPath != "" {
		return config.Load(opts.configPath)
	}

	cachePath := config.CachePath()
	cached, err := config.LoadCache(cachePath)
	if err != nil {
		logger.Warn("Ignoring unreadable cache", "path", cachePath, "err", err)
	}
	if cached != nil {
		logger.Info("Using cached setup; pass --clear-cache to choose again", "path", cachePath)
		return *cached, nil
	}

	cfg, err := interactiveSetup(ctx, newPrompter(stdin, stdout))
	if err != nil {
		return cfg, err
	}
	if err := config.Save(cachePath, cfg); err != nil {
		logger.Warn("Could not cache setup", "path", cachePath, "err", err)
	}
	return cfg, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	logger := newSlogLogger(stderr, opts.logLevel)

	if opts.clearCache {
		if err := config.ClearCache(config.CachePath()); err != nil {
			logger.Warn("Could not clear cache", "err", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch opts.command {
	case cmdListDevices:
		if err := listInputDevices(stdout); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	case cmdFindKeycodes:
		if err := findKeycodes(ctx, opts.run.Device, stdout); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	cfg := opts.run
	if opts.command == "" {
		cfg, err = resolveRun(ctx, opts, stdin, stdout, logger)
		if err != nil {
			if ctx.Err() != nil {
				return 0
			}
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	fmt.Fprintf(stdout, "Using args: `%s`\n", commandLine(cfg))

	if err := startClicker(ctx, opts, cfg, logger, stdout); err != nil {
		if isPermissionError(err) {
			fmt.Fprintln(stderr, permissionDeniedHint())
		}
		fmt.Fprintf(stderr, "Captured device error: %v\n", err)
		fmt.Fprintln(stderr, "The Clicker will terminate!")
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
