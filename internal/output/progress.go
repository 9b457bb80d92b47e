// Package output handles all blobsweep CLI output formatting.
package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/vulnverified/blobsweep/internal/engine"
)

const barRefresh = 200 * time.Millisecond

var (
	green  = color.New(color.FgHiGreen)
	yellow = color.New(color.FgHiYellow)
	cyan   = color.New(color.FgHiCyan)
	red    = color.New(color.FgHiRed)
)

var foundLabels = map[string]struct {
	text  string
	sep   string
	color *color.Color
}{
	engine.FoundAccount:        {"Found Storage Account", " -", cyan},
	engine.FoundSubdomain:      {"Found Subdomain", " -", cyan},
	engine.FoundObject:         {"Public File Available", ":", green},
	engine.FoundEmptyContainer: {"Empty Public Container Available", ":", yellow},
}

// Progress writes stage progress, findings and progress bars to stderr.
type Progress struct {
	w       io.Writer
	verbose bool
	silent  bool
	bars    bool
	mu      sync.Mutex
	start   time.Time
	bar     *progressbar.ProgressBar
}

// NewProgress creates a progress reporter. Bars are drawn only when bars is
// set and the reporter is neither verbose nor silent.
func NewProgress(w io.Writer, verbose, silent, bars bool) *Progress {
	return &Progress{
		w:       w,
		verbose: verbose,
		silent:  silent,
		bars:    bars && !verbose && !silent,
		start:   time.Now(),
	}
}

// Stage prints a stage header like "[1/3] Resolving 441 candidates..."
func (p *Progress) Stage(num, total int, msg string) {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearBar()
	fmt.Fprintf(p.w, "[%d/%d] %s\n", num, total, msg)
}

// Detail prints verbose detail (only in verbose mode).
func (p *Progress) Detail(msg string) {
	if !p.verbose || p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "  %s\n", msg)
}

// Warn prints a warning to stderr.
func (p *Progress) Warn(msg string) {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearBar()
	fmt.Fprintf(p.w, "  %s %s\n", red.Sprint("!"), msg)
}

// Found prints one finding as it is confirmed.
func (p *Progress) Found(kind, value string) {
	if p.silent {
		return
	}
	label, ok := foundLabels[kind]
	if !ok {
		label.text, label.sep, label.color = "Found", ":", green
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearBar()
	fmt.Fprintf(p.w, "  %s%s %s\n", label.color.Sprint(label.text), label.sep, value)
}

// Track starts a progress bar for total units of work. tick is safe for
// concurrent use; done stops the bar and must be called once.
func (p *Progress) Track(desc string, total int) (tick func(), done func()) {
	var completed atomic.Int64
	tick = func() { completed.Add(1) }
	if !p.bars || total <= 0 {
		return tick, func() {}
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionEnableColorCodes(!color.NoColor),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("req"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionThrottle(barRefresh),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.w) }),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	p.mu.Lock()
	p.bar = bar
	p.mu.Unlock()

	stop := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(barRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.mu.Lock()
				bar.Set64(completed.Load())
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	done = func() {
		once.Do(func() {
			close(stop)
			<-finished
			p.mu.Lock()
			defer p.mu.Unlock()
			bar.Set64(completed.Load())
			bar.Finish()
			p.bar = nil
		})
	}
	return tick, done
}

// clearBar erases the active bar so a message can be printed in its place.
// The next refresh redraws it. Callers hold p.mu.
func (p *Progress) clearBar() {
	if p.bar != nil {
		p.bar.Clear()
	}
}

// Complete prints the final duration.
func (p *Progress) Complete() {
	if p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	elapsed := time.Since(p.start)
	fmt.Fprintf(p.w, "\nCompleted in %.1fs\n", elapsed.Seconds())
}
