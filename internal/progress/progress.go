// Package progress renders unpack progress as a terminal bar.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/meigma/qgenie/internal/bundletype"
)

var descLength = 24

// Bar shows extraction progress. The zero value and a disabled Bar
// ignore every event.
type Bar struct {
	out     io.Writer
	enabled bool

	mu        sync.Mutex // guards lazy start
	container *mpb.Progress
	bar       *mpb.Bar

	// description is read by the decorator on the render goroutine, so it
	// must not share mu with Handle.
	description atomic.Pointer[string]
}

// New returns a Bar writing to out. The bar is shown only when enabled is
// true and out is a terminal.
func New(out *os.File, enabled bool) *Bar {
	return newBar(out, enabled && isTerminal(out))
}

func newBar(out io.Writer, enabled bool) *Bar {
	return &Bar{out: out, enabled: enabled}
}

// Handle consumes one progress event. It is safe for concurrent use and
// matches bundletype.ProgressFunc.
func (p *Bar) Handle(ev bundletype.ProgressEvent) {
	if p == nil || !p.enabled || ev.Stage != bundletype.StageExtracting {
		return
	}

	p.mu.Lock()
	if p.bar == nil {
		p.start(ev.FilesTotal)
	}
	bar := p.bar
	p.mu.Unlock()

	path := ev.Path
	p.description.Store(&path)
	bar.Increment()
}

// start creates the container and bar. p.mu must be held.
func (p *Bar) start(total int) {
	p.container = mpb.New(
		mpb.WithOutput(p.out),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)
	p.bar = p.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				desc := p.description.Load()
				if desc == nil {
					return ""
				}
				if len(*desc) > descLength {
					return ".." + (*desc)[len(*desc)-descLength+2:]
				}
				return *desc
			}, decor.WC{W: descLength, C: decor.DindentRight}),
			decor.Name("  "),
			decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)
}

// Finish stops the bar. A bar that did not reach its total, because some
// sections failed, is aborted and left on screen.
func (p *Bar) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	container, bar := p.container, p.bar
	p.mu.Unlock()
	if container == nil {
		return
	}
	if !bar.Completed() {
		bar.Abort(false)
	}
	container.Wait()
	fmt.Fprintln(p.out)
}

// isTerminal checks if f is a terminal (TTY).
func isTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}
