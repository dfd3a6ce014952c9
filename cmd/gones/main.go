// Command gones is the desktop frontend for the emulator core: it opens a
// window, pumps input and audio, and steps the scheduler once per
// Ebitengine update.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/sync/errgroup"

	"gones/internal/config"
	"gones/internal/emulator"
	"gones/internal/version"
)

func main() {
	romPath := flag.String("rom", "", "path to an iNES ROM file")
	configPath := flag.String("config", "./config/gones.json", "path to the config file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetDetailedVersion())
		return
	}

	if *romPath == "" {
		fmt.Fprintln(os.Stderr, "usage: gones -rom path/to/game.nes")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	romData, err := os.ReadFile(*romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}

	region := emulator.RegionNTSC
	if cfg.Emulation.Region == "PAL" {
		region = emulator.RegionPAL
	}

	emu := emulator.New(region)
	if err := emu.LoadROM(romData); err != nil {
		log.Fatalf("load rom: %v", err)
	}
	emu.SetAudioSampleRate(cfg.Audio.SampleRate)

	g, err := newGame(emu, cfg)
	if err != nil {
		log.Fatalf("init game: %v", err)
	}

	w, h := cfg.WindowResolution()
	ebiten.SetWindowTitle("gones - " + *romPath)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(cfg.Video.VSync)
	ebiten.SetFullscreen(cfg.Window.Fullscreen)
	ebiten.SetScreenFilterEnabled(cfg.Video.Filter == "linear")

	// A signal-watcher goroutine and the Ebitengine loop run under the
	// same group so either a SIGINT or a fatal ebiten error stops both
	// and the config gets one chance to flush to disk on the way out.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var eg errgroup.Group
	eg.Go(func() error {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
			g.requestQuit()
		case <-ctx.Done():
		}
		return nil
	})
	eg.Go(func() error {
		defer cancel()
		return ebiten.RunGame(g)
	})

	if err := eg.Wait(); err != nil && err != errQuitRequested {
		log.Printf("run game: %v", err)
	}

	if err := cfg.Save(); err != nil {
		log.Printf("save config: %v", err)
	}
}
