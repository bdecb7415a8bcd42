package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/marcval/go-chroma/chroma"
	"github.com/marcval/go-chroma/chroma/audio"
	"github.com/marcval/go-chroma/chroma/backend"
	"github.com/marcval/go-chroma/chroma/backend/speaker"
	"github.com/marcval/go-chroma/chroma/backend/terminal"
	"github.com/marcval/go-chroma/chroma/cart"
	"github.com/marcval/go-chroma/chroma/config"
)

const frameTime = time.Second / 60

func main() {
	app := cli.NewApp()
	app.Name = "chroma"
	app.Description = "A Game Boy Color emulator"
	app.Usage = "chroma [options] <ROM file>"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "config",
			Usage: "Path to a TOML config file",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without a display",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory for frame snapshots (default: temp directory)",
		},
		cli.StringFlag{
			Name:  "boot-rom",
			Usage: "Path to a boot ROM image",
		},
		cli.BoolFlag{
			Name:  "no-audio",
			Usage: "Disable audio output",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.Bool("no-audio") {
		cfg.Audio = false
	}
	if c.IsSet("snapshot-interval") {
		cfg.SnapshotInterval = c.Int("snapshot-interval")
	}
	if c.IsSet("snapshot-dir") {
		cfg.SnapshotDir = c.String("snapshot-dir")
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	})))

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	options := chroma.Options{}
	if path := c.String("boot-rom"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading boot ROM: %w", err)
		}
		options.BootROM = data
	}

	var audioDriver audio.Driver
	var closeAudio func() error
	if cfg.Audio && !c.Bool("headless") {
		spk, err := speaker.New()
		if err != nil {
			slog.Warn("Audio unavailable, continuing silent", "error", err)
		} else {
			audioDriver = spk
			closeAudio = spk.Close
		}
	}
	options.AudioDriver = audioDriver

	emu, err := chroma.NewWithFile(romPath, options)
	if err != nil {
		return err
	}
	if closeAudio != nil {
		defer func() { _ = closeAudio() }()
	}

	loadBatterySaves(emu, romPath, cfg)
	defer writeBatterySaves(emu, romPath, cfg)

	if c.Bool("headless") {
		frames := c.Int("frames")
		if frames <= 0 {
			return errors.New("headless mode requires --frames with a positive value")
		}
		return runHeadless(emu, romPath, frames, cfg)
	}
	return runTerminal(emu)
}

func runTerminal(emu *chroma.CGB) error {
	term := terminal.New()
	if err := term.Init(); err != nil {
		return err
	}
	defer func() { _ = term.Cleanup() }()

	ticker := time.NewTicker(frameTime)
	defer ticker.Stop()

	for range ticker.C {
		emu.RunUntilFrame()
		events, err := term.Update(emu.Frame())
		for _, event := range events {
			if event.Pressed {
				emu.Press(event.Key)
			} else {
				emu.Release(event.Key)
			}
		}
		if err != nil {
			if errors.As(err, &backend.QuitRequested{}) {
				return nil
			}
			return err
		}
	}
	return nil
}

func runHeadless(emu *chroma.CGB, romPath string, frames int, cfg config.Config) error {
	snapshotDir := cfg.SnapshotDir
	if cfg.SnapshotInterval > 0 && snapshotDir == "" {
		dir, err := os.MkdirTemp("", "chroma-snapshots-*")
		if err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
		snapshotDir = dir
	}
	if snapshotDir != "" {
		if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}
	romName := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))

	slog.Info("Running headless", "frames", frames, "snapshot_interval", cfg.SnapshotInterval)
	for i := 1; i <= frames; i++ {
		emu.RunUntilFrame()
		if cfg.SnapshotInterval > 0 && i%cfg.SnapshotInterval == 0 {
			path := filepath.Join(snapshotDir, fmt.Sprintf("%s_frame_%d.txt", romName, i))
			if err := saveFrameSnapshot(emu, path); err != nil {
				slog.Error("Failed to save snapshot", "frame", i, "path", path, "error", err)
			} else {
				slog.Info("Saved frame snapshot", "frame", i, "path", path)
			}
		}
	}
	slog.Info("Headless execution completed", "frames", frames, "instructions", emu.InstructionCount())
	return nil
}

func saveFrameSnapshot(emu *chroma.CGB, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fmt.Fprintf(file, "# Frame %d, %d instructions\n", emu.FrameCount(), emu.InstructionCount())
	for _, line := range backend.RenderFrameToText(emu.Frame()) {
		fmt.Fprintln(file, line)
	}
	return nil
}

func savePaths(romPath string, cfg config.Config) (ram, rtc string) {
	base := strings.TrimSuffix(romPath, filepath.Ext(romPath))
	if cfg.SaveDir != "" {
		base = filepath.Join(cfg.SaveDir, filepath.Base(base))
	}
	return base + ".sav", base + ".rtc"
}

func loadBatterySaves(emu *chroma.CGB, romPath string, cfg config.Config) {
	ramPath, rtcPath := savePaths(romPath, cfg)

	if data, err := os.ReadFile(ramPath); err == nil {
		if err := emu.RestoreRAM(data); err != nil {
			slog.Warn("Ignoring battery save", "path", ramPath, "error", err)
		} else {
			slog.Info("Loaded battery save", "path", ramPath)
		}
	}

	if data, err := os.ReadFile(rtcPath); err == nil {
		var snap cart.RTCSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			slog.Warn("Ignoring RTC save", "path", rtcPath, "error", err)
			return
		}
		if err := emu.RestoreRTC(snap, time.Now()); err != nil {
			slog.Warn("Ignoring RTC save", "path", rtcPath, "error", err)
		}
	}
}

func writeBatterySaves(emu *chroma.CGB, romPath string, cfg config.Config) {
	ramPath, rtcPath := savePaths(romPath, cfg)

	if data := emu.SnapshotRAM(); len(data) > 0 {
		if err := os.WriteFile(ramPath, data, 0o644); err != nil {
			slog.Error("Failed to write battery save", "path", ramPath, "error", err)
		}
	}

	if snap, ok := emu.SnapshotRTC(time.Now()); ok {
		data, err := json.Marshal(snap)
		if err == nil {
			err = os.WriteFile(rtcPath, data, 0o644)
		}
		if err != nil {
			slog.Error("Failed to write RTC save", "path", rtcPath, "error", err)
		}
	}
}
