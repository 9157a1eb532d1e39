//go:build cgo

package window

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"

	"github.com/litescript/ls-starfly/internal/driver"
	"github.com/litescript/ls-starfly/internal/export"
	"github.com/litescript/ls-starfly/internal/logging"
	"github.com/litescript/ls-starfly/internal/raster"
	"github.com/litescript/ls-starfly/internal/state"
)

// Run opens the window and drives runner from the game loop until the window
// is closed, the saver exits or ctx is cancelled. It blocks.
func Run(ctx context.Context, runner Runner, opts Options) error {
	w, h := opts.Size()
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	g := &game{
		ctx:    ctx,
		runner: runner,
		opts:   opts,
		log:    log,
		width:  w,
		height: h,
		pixels: make([]byte, w*h*4),
		exit:   newExitDetector(time.Now()),
	}

	title := opts.Title
	if title == "" {
		title = "StarFly"
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(w, h)
	ebiten.SetTPS(tps(opts.Interval))
	if opts.Fullscreen {
		ebiten.SetFullscreen(true)
		ebiten.SetCursorMode(ebiten.CursorModeHidden)
	}

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}

type game struct {
	ctx    context.Context
	runner Runner
	opts   Options
	log    *logging.Logger

	width  int
	height int
	pixels []byte
	img    *ebiten.Image

	exit   *exitDetector
	debug  bool
	last   state.FrameStats
	status string

	clipboardOnce sync.Once
	clipboardOK   bool
}

// Present implements driver.Sink by copying the frame into the upload buffer.
func (g *game) Present(f *raster.Frame, fs state.FrameStats) error {
	f.CopyRGBA(g.pixels)
	g.last = fs
	return nil
}

func (g *game) Update() error {
	select {
	case <-g.ctx.Done():
		return ebiten.Termination
	default:
	}

	if g.opts.Saver {
		if g.saverExit() {
			return ebiten.Termination
		}
	} else if quit := g.handleKeys(); quit {
		return ebiten.Termination
	}

	_, err := g.runner.StepTo(time.Now(), g)
	if errors.Is(err, driver.ErrClosed) {
		return ebiten.Termination
	}
	return err
}

func (g *game) saverExit() bool {
	keys := inpututil.AppendJustPressedKeys(nil)
	button := inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) ||
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) ||
		inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonMiddle)
	x, y := ebiten.CursorPosition()
	return g.exit.check(time.Now(), len(keys) > 0, button, x, y)
}

func (g *game) handleKeys() bool {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyQ):
		return true
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if g.runner.TogglePause() {
			g.status = "paused"
		} else {
			g.status = ""
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyD):
		g.debug = !g.debug
	case inpututil.IsKeyJustPressed(ebiten.KeyB):
		g.snapshot()
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		g.copyFrame()
	case inpututil.IsKeyJustPressed(ebiten.KeyF11):
		fs := !ebiten.IsFullscreen()
		ebiten.SetFullscreen(fs)
		if fs {
			ebiten.SetCursorMode(ebiten.CursorModeHidden)
		} else {
			ebiten.SetCursorMode(ebiten.CursorModeVisible)
		}
	}
	return false
}

func (g *game) snapshot() {
	path := filepath.Join(g.opts.SnapshotDir, export.SnapshotName(time.Now()))
	err := g.runner.Capture(func(f *raster.Frame) error {
		return export.SaveBMP(path, f)
	})
	if err != nil {
		g.status = "snapshot failed"
		g.log.Error("snapshot %s: %v", path, err)
		return
	}
	g.status = "saved " + path
	g.log.Info("snapshot saved to %s", path)
}

// copyFrame puts the current frame on the clipboard as a PNG image.
func (g *game) copyFrame() {
	g.clipboardOnce.Do(func() {
		g.clipboardOK = clipboard.Init() == nil
	})
	if !g.clipboardOK {
		g.status = "clipboard unavailable"
		return
	}

	var buf bytes.Buffer
	err := g.runner.Capture(func(f *raster.Frame) error {
		return export.WritePNG(&buf, f)
	})
	if err != nil {
		g.status = "copy failed"
		g.log.Error("copy frame: %v", err)
		return
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	g.status = "frame copied"
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.img == nil {
		g.img = ebiten.NewImage(g.width, g.height)
	}
	g.img.WritePixels(g.pixels)
	screen.DrawImage(g.img, nil)

	if g.debug || g.status != "" {
		g.drawStatus(screen)
	}
}

func (g *game) drawStatus(screen *ebiten.Image) {
	const barHeight = 18
	ebitenutil.DrawRect(screen, 0, 0, float64(g.width), barHeight, color.RGBA{0, 0, 0, 180})

	line := g.status
	if g.debug {
		line = fmt.Sprintf("ms:%d rnd:%d  %s", g.last.Elapsed.Milliseconds(), g.last.Regenerations, g.status)
	}
	text.Draw(screen, line, basicfont.Face7x13, 6, 13, color.RGBA{190, 190, 190, 255})
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}
