//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"theclicker/internal/adapters/linuxinput"
	"theclicker/internal/config"
	"theclicker/internal/core/autoclicker"

	"golang.org/x/term"
)

// waitKeyRelease gives the user time to let go of Enter before a key capture
// grabs the device.
const waitKeyRelease = 100 * time.Millisecond

func parseBinding(value string) (*uint16, error) {
	if value == "" {
		return nil, nil
	}
	code, err := linuxinput.ParseCode(value)
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func engineConfig(cfg config.Config, beep bool) (autoclicker.Config, error) {
	out := autoclicker.Config{
		Mode:       autoclicker.ModeToggle,
		Cooldown:   time.Duration(cfg.CooldownMS) * time.Millisecond,
		CooldownPR: time.Duration(cfg.CooldownPressRelease) * time.Millisecond,
		Beep:       beep,
	}

	if cfg.Command == config.CommandRunLegacy {
		out.Binding = linuxinput.LegacyBinding()
		return out, nil
	}

	if cfg.Hold {
		out.Mode = autoclicker.ModeHold
	}
	out.Grab = cfg.Grab

	for _, bind := range []struct {
		name  string
		value string
		dst   **uint16
	}{
		{"left", cfg.Left, &out.Binding.Left},
		{"middle", cfg.Middle, &out.Binding.Middle},
		{"right", cfg.Right, &out.Binding.Right},
		{"lock_unlock", cfg.LockUnlock, &out.Binding.LockUnlock},
	} {
		code, err := parseBinding(bind.value)
		if err != nil {
			return out, fmt.Errorf("%s binding: %w", bind.name, err)
		}
		*bind.dst = code
	}
	return out, nil
}

func openRunDevice(ctx context.Context, query string, wait time.Duration) (*linuxinput.InputHandle, error) {
	if wait > 0 {
		return linuxinput.WaitForDevice(ctx, query, wait)
	}
	return linuxinput.OpenInput(query)
}

// openSource opens the physical side of cfg. The returned handle is also the
// engine's Source.
func openSource(ctx context.Context, opts options, cfg config.Config) (linuxinput.Handle, error) {
	if cfg.Command == config.CommandRunLegacy {
		handle, err := linuxinput.OpenLegacy(cfg.Device)
		if err != nil {
			return nil, err
		}
		return handle, nil
	}
	handle, err := openRunDevice(ctx, cfg.Device, opts.wait)
	if err != nil {
		if errors.Is(err, linuxinput.ErrLegacyDevice) {
			return nil, fmt.Errorf("%w: theclicker run-legacy -d %s", err, cfg.Device)
		}
		return nil, err
	}
	return handle, nil
}

func closeHandle(logger *slog.Logger, h linuxinput.Handle) {
	if err := h.Close(); err != nil {
		logger.Debug("Closing device failed", "kind", linuxinput.HandleKind(h), "path", h.Path(), "err", err)
	}
}

func startClicker(ctx context.Context, opts options, cfg config.Config, logger *slog.Logger, stdout io.Writer) error {
	engineCfg, err := engineConfig(cfg, opts.beep)
	if err != nil {
		return err
	}

	handle, err := openSource(ctx, opts, cfg)
	if err != nil {
		return err
	}
	source := handle.(autoclicker.Source)

	var mirror *linuxinput.InputHandle
	if input, ok := handle.(*linuxinput.InputHandle); ok {
		logger.Info("Using source device", "kind", linuxinput.HandleKind(handle), "path", input.Path(), "name", input.Name())
		if cfg.Grab {
			mirror = input
		}
	} else {
		logger.Info("Using source device", "kind", linuxinput.HandleKind(handle), "path", handle.Path())
	}

	output, err := linuxinput.CreateOutput(mirror)
	if err != nil {
		closeHandle(logger, handle)
		return err
	}
	defer closeHandle(logger, output)

	reporter := autoclicker.NewStatusLine(stdout, isTerminal(stdout))
	engine, err := autoclicker.NewEngine(engineCfg, source, output, reporter, logger)
	if err != nil {
		closeHandle(logger, handle)
		return err
	}

	logger.Info("Mode", "name", engineCfg.Mode.String())
	logger.Info("Cooldown", "ms", cfg.CooldownMS, "press_release_ms", cfg.CooldownPressRelease)
	if engineCfg.Grab {
		logger.Info("Grab mode enabled; unbound input is forwarded through the virtual device")
	}
	if engineCfg.Binding.LockUnlock != nil {
		logger.Info("Starting locked; press the lock/unlock binding to enable the other bindings",
			"lock_unlock", linuxinput.FormatCodeName(*engineCfg.Binding.LockUnlock))
	}
	logger.Info("Press Ctrl+C to stop")

	if err := engine.Run(ctx); err != nil {
		if linuxinput.IsBusyError(err) {
			logger.Warn("Device is grabbed by another program; retry without --grab")
		}
		return err
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func isPermissionError(err error) bool {
	return linuxinput.IsPermissionError(err)
}

func permissionDeniedHint() string {
	return "Permission denied opening input devices. Run as root or add a udev rule for /dev/input and /dev/uinput."
}

func listInputDevices(out io.Writer) error {
	devices, err := linuxinput.ListInputDevices()
	if err != nil {
		return err
	}
	for _, dev := range devices {
		kind := "evdev"
		if dev.IsLegacy {
			kind = "legacy"
		}
		virtualTag := "physical"
		if dev.IsVirtual {
			virtualTag = "virtual"
		}
		pointerTag := "non-pointer"
		if dev.IsPointer {
			pointerTag = "pointer"
		}
		fmt.Fprintf(out, "%s: %s [%s, %s, %s]\n", dev.Path, dev.DisplayName(), kind, virtualTag, pointerTag)
	}
	return nil
}

func findKeycodes(ctx context.Context, device string, out io.Writer) error {
	fmt.Fprintln(out, "Press keys on the device, Ctrl+C to stop")
	return linuxinput.WatchKeyPresses(ctx, device, func(code uint16) {
		fmt.Fprintln(out, linuxinput.DescribeCode(code))
	})
}

func selectDevice(p *prompter) (linuxinput.DeviceInfo, error) {
	for {
		all, err := linuxinput.ListInputDevices()
		if err != nil {
			return linuxinput.DeviceInfo{}, err
		}
		devices := all[:0]
		for _, dev := range all {
			if dev.HasKeys && !dev.IsVirtual {
				devices = append(devices, dev)
			}
		}
		if len(devices) == 0 {
			return linuxinput.DeviceInfo{}, fmt.Errorf("no readable input devices found; try as root")
		}

		fmt.Fprintln(p.out, "Select input device:")
		for i, dev := range devices {
			fmt.Fprintf(p.out, "\t%d: Device: %s\n", i, dev.DisplayName())
		}

		n, err := p.number("", nil)
		if err != nil {
			return linuxinput.DeviceInfo{}, err
		}
		if n >= uint64(len(devices)) {
			fmt.Fprintln(p.out, "Is too large!")
			continue
		}

		ok, err := p.yes(fmt.Sprintf("Device selected: %s, Is Ok", devices[n].DisplayName()), true)
		if err != nil {
			return linuxinput.DeviceInfo{}, err
		}
		if ok {
			return devices[n], nil
		}
	}
}

func chooseKey(ctx context.Context, p *prompter, path, name string) (string, error) {
	for {
		time.Sleep(waitKeyRelease)
		fmt.Fprintln(p.out, "Waiting for key presses from the selected device")
		fmt.Fprintf(p.out, "Choose key for %s:\n", name)

		code, err := linuxinput.CaptureNextKeyCode(ctx, path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(p.out, "\t%s\n", linuxinput.DescribeCode(code))

		if linuxinput.IsReservedCode(code) {
			fmt.Fprintln(p.out, "This key is reserved for stopping the program, choose another")
			continue
		}

		ok, err := p.yes("You want to choose this", true)
		if err != nil {
			return "", err
		}
		if ok {
			return strconv.Itoa(int(code)), nil
		}
	}
}

func optionalKey(ctx context.Context, p *prompter, path, question, name string, def bool) (string, error) {
	ok, err := p.yes(question, def)
	if err != nil || !ok {
		return "", err
	}
	return chooseKey(ctx, p, path, name)
}

func interactiveSetup(ctx context.Context, p *prompter) (config.Config, error) {
	cfg := config.Default()

	dev, err := selectDevice(p)
	if err != nil {
		return cfg, err
	}
	cfg.Device = dev.Path
	fmt.Fprintf(p.out, "Device name: %s\n", dev.DisplayName())

	if dev.IsLegacy {
		fmt.Fprintln(p.out, "Using legacy interface for PS/2 device")
		cfg.Command = config.CommandRunLegacy
	} else {
		cfg.Command = config.CommandRun
		if cfg.LockUnlock, err = optionalKey(ctx, p, dev.Path, "Lock Unlock mode, useful for mouse without side buttons", "lock_unlock_bind", false); err != nil {
			return cfg, err
		}
		if cfg.Left, err = optionalKey(ctx, p, dev.Path, "You want a binding for left autoclicker?", "left_bind", true); err != nil {
			return cfg, err
		}
		if cfg.Middle, err = optionalKey(ctx, p, dev.Path, "You want a binding for middle autoclicker?", "middle_bind", false); err != nil {
			return cfg, err
		}
		if cfg.Right, err = optionalKey(ctx, p, dev.Path, "You want a binding for right autoclicker?", "right_bind", true); err != nil {
			return cfg, err
		}
		if cfg.Hold, err = p.yes("You want to hold the bind / active hold_mode?", true); err != nil {
			return cfg, err
		}

		fmt.Fprintln(p.out, "Warning: with grab mode you can get softlocked if the compositor does not use the TheClicker device.")
		fmt.Fprintln(p.out, "While grabbed, the device is emulated by TheClicker and bound keys are not sent.")
		if cfg.Grab, err = p.yes("You want to grab the input device?", true); err != nil {
			return cfg, err
		}
	}

	if cfg.CooldownMS, err = p.number("Choose cooldown, the min is 25", uintPtr(config.DefaultCooldownMS)); err != nil {
		return cfg, err
	}
	if cfg.CooldownMS < config.DefaultCooldownMS {
		cfg.CooldownMS = config.DefaultCooldownMS
		fmt.Fprintln(p.out, "The cooldown was set to 25")
		fmt.Fprintln(p.out, "The linux kernel does not permit more than 40 events from a device per second!")
		fmt.Fprintln(p.out, "If your kernel permits that, bypass this dialog with the run subcommand and -c.")
	}
	if cfg.CooldownPressRelease, err = p.number("Choose cooldown between press and release", uintPtr(0)); err != nil {
		return cfg, err
	}

	time.Sleep(waitKeyRelease)
	return cfg, cfg.Validate()
}
