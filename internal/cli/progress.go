package cli

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/schollz/progressbar/v3"
)

// Progress reports document extraction progress.
type Progress struct {
	bar   *progressbar.ProgressBar
	count atomic.Int64
}

// NewProgress creates a progress bar over total documents.
func NewProgress(writer io.Writer, total int) *Progress {
	if writer == nil {
		writer = os.Stderr
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Extracting[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(writer)
		}),
	)
	return &Progress{bar: bar}
}

// Document marks one document as processed. It can be passed to
// review.WithProgress and is safe for concurrent use.
func (p *Progress) Document(doc model.Document) {
	p.bar.Describe(fmt.Sprintf("[cyan]%s[reset]", doc.Name()))
	_ = p.bar.Add(1)
	p.count.Add(1)
}

// Count returns how many documents were reported.
func (p *Progress) Count() int {
	return int(p.count.Load())
}

// Finish completes the bar.
func (p *Progress) Finish() {
	_ = p.bar.Finish()
}
