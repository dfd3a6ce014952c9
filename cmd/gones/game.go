package main

import (
	"errors"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"gones/internal/config"
	"gones/internal/emulator"
	"gones/internal/input"
)

// errQuitRequested is returned by Update to ask Ebitengine to stop the
// game loop after a SIGINT or SIGTERM.
var errQuitRequested = errors.New("gones: quit requested")

// game adapts the emulator core to ebiten.Game. It holds no emulation
// state itself; it only translates host input into controller state and
// blits whatever frame the scheduler's video sink last delivered.
type game struct {
	emu    *emulator.Emulator
	cfg    *config.Config
	frame  *ebiten.Image
	pixels []byte

	player      *audio.Player
	audioStream *sampleStream

	bindings [2]keyBinding
	quit     bool
}

type keyBinding struct {
	up, down, left, right, a, b, start, selectKey ebiten.Key
}

func newGame(emu *emulator.Emulator, cfg *config.Config) (*game, error) {
	g := &game{
		emu:    emu,
		cfg:    cfg,
		frame:  ebiten.NewImage(256, 240),
		pixels: make([]byte, 256*240*4),
	}
	g.bindings[0] = resolveKeyBinding(cfg.Input.Player1)
	g.bindings[1] = resolveKeyBinding(cfg.Input.Player2)

	audioCtx := audio.NewContext(cfg.Audio.SampleRate)
	stream := newSampleStream(cfg.Audio.SampleRate)
	player, err := audioCtx.NewPlayer(stream)
	if err != nil {
		return nil, err
	}
	g.player = player
	g.audioStream = stream

	emu.SetVideoSink(g.blit)
	emu.SetAudioSink(func(samples []float32) {
		if cfg.Audio.Enabled {
			stream.push(samples)
		}
	})

	if cfg.Audio.Enabled {
		player.SetVolume(float64(cfg.Audio.Volume))
		player.Play()
	}

	return g, nil
}

func (g *game) requestQuit() { g.quit = true }

func (g *game) Update() error {
	if g.quit {
		return errQuitRequested
	}
	g.pollInput()
	g.emu.RunFrame()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scaleX := float64(sw) / 256
	scaleY := float64(sh) / 240
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate((float64(sw)-256*scale)/2, (float64(sh)-240*scale)/2)
	screen.DrawImage(g.frame, op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (g *game) blit(frame *[256 * 240]uint32) {
	for i, pixel := range frame {
		g.pixels[i*4+0] = byte(pixel >> 24)
		g.pixels[i*4+1] = byte(pixel >> 16)
		g.pixels[i*4+2] = byte(pixel >> 8)
		g.pixels[i*4+3] = byte(pixel)
	}
	g.frame.WritePixels(g.pixels)
}

func (g *game) pollInput() {
	ports := g.emu.Controllers()
	applyBinding(ports.Controller1, g.bindings[0])
	applyBinding(ports.Controller2, g.bindings[1])
}

func applyBinding(c *input.Controller, kb keyBinding) {
	c.SetButton(input.ButtonUp, ebiten.IsKeyPressed(kb.up))
	c.SetButton(input.ButtonDown, ebiten.IsKeyPressed(kb.down))
	c.SetButton(input.ButtonLeft, ebiten.IsKeyPressed(kb.left))
	c.SetButton(input.ButtonRight, ebiten.IsKeyPressed(kb.right))
	c.SetButton(input.ButtonA, ebiten.IsKeyPressed(kb.a))
	c.SetButton(input.ButtonB, ebiten.IsKeyPressed(kb.b))
	c.SetButton(input.ButtonStart, ebiten.IsKeyPressed(kb.start))
	c.SetButton(input.ButtonSelect, ebiten.IsKeyPressed(kb.selectKey))
}

func resolveKeyBinding(km config.KeyMapping) keyBinding {
	return keyBinding{
		up:        keyByName(km.Up),
		down:      keyByName(km.Down),
		left:      keyByName(km.Left),
		right:     keyByName(km.Right),
		a:         keyByName(km.A),
		b:         keyByName(km.B),
		start:     keyByName(km.Start),
		selectKey: keyByName(km.Select),
	}
}

// keyNames maps the config file's key names to ebiten key codes, covering
// the keys the default bindings use plus the rest of the letter keys A-Z
// so a hand-edited config can rebind to any of them.
var keyNames = map[string]ebiten.Key{
	"Up": ebiten.KeyArrowUp, "Down": ebiten.KeyArrowDown,
	"Left": ebiten.KeyArrowLeft, "Right": ebiten.KeyArrowRight,
	"Enter": ebiten.KeyEnter, "Space": ebiten.KeySpace,
	"RightShift": ebiten.KeyShiftRight, "RightControl": ebiten.KeyControlRight,
	"A": ebiten.KeyA, "B": ebiten.KeyB, "C": ebiten.KeyC, "D": ebiten.KeyD,
	"E": ebiten.KeyE, "F": ebiten.KeyF, "G": ebiten.KeyG, "H": ebiten.KeyH,
	"I": ebiten.KeyI, "J": ebiten.KeyJ, "K": ebiten.KeyK, "L": ebiten.KeyL,
	"M": ebiten.KeyM, "N": ebiten.KeyN, "O": ebiten.KeyO, "P": ebiten.KeyP,
	"Q": ebiten.KeyQ, "R": ebiten.KeyR, "S": ebiten.KeyS, "T": ebiten.KeyT,
	"U": ebiten.KeyU, "V": ebiten.KeyV, "W": ebiten.KeyW, "X": ebiten.KeyX,
	"Y": ebiten.KeyY, "Z": ebiten.KeyZ,
}

func keyByName(name string) ebiten.Key {
	if key, ok := keyNames[name]; ok {
		return key
	}
	// An unrecognized binding falls back to a key nothing else uses
	// rather than an invalid ebiten.Key value.
	return ebiten.KeyF24
}
