//go:build !noebiten

package preview

import (
	"context"
	"errors"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/opd-ai/go-meme/internal/render"
	"github.com/opd-ai/go-meme/pkg/meme"
)

// keyActions maps keys to actions: the arrows rotate and scale, M
// mirrors, R resets and S saves.
var keyActions = map[ebiten.Key]Action{
	ebiten.KeyArrowLeft:  ActionRotateLeft,
	ebiten.KeyArrowRight: ActionRotateRight,
	ebiten.KeyArrowUp:    ActionScaleUp,
	ebiten.KeyArrowDown:  ActionScaleDown,
	ebiten.KeyM:          ActionMirror,
	ebiten.KeyR:          ActionReset,
	ebiten.KeyS:          ActionSave,
}

// backdrop shows through transparent parts of the meme.
var backdrop = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}

// Game implements ebiten.Game. It re-renders only after a key press or
// Invalidate, and shows the last good frame while a render fails.
type Game struct {
	ctx  context.Context
	ctrl *controller

	mu     sync.Mutex
	frame  *ebiten.Image
	width  int
	height int

	keys []ebiten.Key
}

// NewGame creates a Game showing gen.
func NewGame(ctx context.Context, gen meme.Generator, opts Options) *Game {
	return &Game{ctx: ctx, ctrl: newController(generatorSource{gen}, opts), width: 1, height: 1}
}

// Invalidate schedules a re-render, for example after the configuration
// file changed. Safe to call from any goroutine.
func (g *Game) Invalidate() {
	g.ctrl.invalidate()
}

// Update implements ebiten.Game.Update.
func (g *Game) Update() error {
	select {
	case <-g.ctx.Done():
		return ErrTerminated
	default:
	}

	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		if a, ok := keyActions[k]; ok {
			g.ctrl.handle(g.ctx, a)
		}
	}

	img, ok := g.ctrl.renderIfDirty(g.ctx)
	if !ok {
		return nil
	}
	b := img.Bounds()
	frame := ebiten.NewImageFromImage(img)

	g.mu.Lock()
	old := g.frame
	g.frame = frame
	resized := b.Dx() != g.width || b.Dy() != g.height
	g.width, g.height = b.Dx(), b.Dy()
	g.mu.Unlock()

	if old != nil {
		old.Deallocate()
	}
	if resized {
		ebiten.SetWindowSize(b.Dx(), b.Dy())
	}
	return nil
}

// Draw implements ebiten.Game.Draw.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backdrop)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frame != nil {
		screen.DrawImage(g.frame, nil)
	}
}

// Layout implements ebiten.Game.Layout. The logical screen is the canvas.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.width, g.height
}

// Run opens the preview window and blocks until it is closed or ctx is
// done.
func Run(ctx context.Context, gen meme.Generator, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g := NewGame(ctx, gen, opts)
	if opts.Invalidate != nil {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-opts.Invalidate:
					g.Invalidate()
				}
			}
		}()
	}

	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	// The first Update resizes the window to the rendered canvas.
	layout := gen.Config().Layout
	width := max(int(render.DisplayWidth(layout.ViewportWidth, layout.MaxWidth)), 1)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, width)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ErrTerminated) {
		return err
	}
	return nil
}
