package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// scanProgress reports scan progress on w with a progress bar.
type scanProgress struct {
	w         io.Writer
	quiet     bool
	fileBar   *progressbar.ProgressBar
	startTime time.Time
}

func newScanProgress(w io.Writer, quiet bool) *scanProgress {
	return &scanProgress{w: w, quiet: quiet, startTime: time.Now()}
}

func (p *scanProgress) OnDiscoveryComplete(files int) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.w, "Scanning %d Python files\n", files)

	p.fileBar = progressbar.NewOptions(files,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("Parsing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(p.w)
		}),
	)
}

func (p *scanProgress) OnFileScanned() {
	if p.quiet || p.fileBar == nil {
		return
	}
	_ = p.fileBar.Add(1)
}

func (p *scanProgress) OnComplete(files, scopes, failed int) {
	if p.quiet {
		return
	}
	if p.fileBar != nil {
		_ = p.fileBar.Finish()
		p.fileBar = nil
	}
	fmt.Fprintf(p.w, "✓ Scan complete: %d callables in %d files (%.1fs)\n",
		scopes, files, time.Since(p.startTime).Seconds())
	if failed > 0 {
		fmt.Fprintf(p.w, "  %d files could not be parsed\n", failed)
	}
}
