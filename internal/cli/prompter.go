package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/review"
)

// ErrReviewAborted is returned when the user quits the review.
var ErrReviewAborted = errors.New("review aborted")

// Prompter walks the user through every review session before anything is
// written to the ledger.
type Prompter struct {
	reader *NonBlockingReader
	writer io.Writer
}

// NewPrompter creates a prompter reading from reader and writing to writer.
// Nil arguments default to stdin and stdout.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// Review implements review.Reviewer.
func (p *Prompter) Review(ctx context.Context, sessions []*review.Session) error {
	for i, s := range sessions {
		if err := p.reviewSession(ctx, s, i+1, len(sessions)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Prompter) reviewSession(ctx context.Context, s *review.Session, n, total int) error {
	for {
		repeats, err := s.Repeats(ctx)
		if err != nil {
			return err
		}
		p.println(RenderSession(s, n, total, repeats))

		if len(s.Entries()) == 0 {
			return nil
		}

		p.println(SubtleStyle.Render("[a]ccept all  [r]eject all  [1,3-5] toggle  [d]elivery conversion  [c]ontinue  [q]uit"))
		p.print(FormatPrompt("Choice"))

		line, err := p.reader.ReadLine(ctx)
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: input closed", ErrReviewAborted)
		}
		if err != nil {
			return err
		}

		switch choice := strings.ToLower(line); choice {
		case "", "c":
			return nil
		case "q":
			return ErrReviewAborted
		case "a":
			p.setAll(s, true)
		case "r":
			p.setAll(s, false)
		case "d":
			s.SetConvertBuySellToDelivery(!s.ConvertBuySellToDelivery())
		default:
			indexes, err := parseSelection(choice, len(s.Entries()))
			if err != nil {
				p.println(FormatError(err.Error()))
				continue
			}
			entries := s.Entries()
			for _, idx := range indexes {
				entry := entries[idx]
				if err := entry.SetAccepted(!entry.Accepted()); err != nil {
					p.println(FormatError(fmt.Sprintf("entry %d: %v", idx+1, err)))
				}
			}
		}
	}
}

func (p *Prompter) setAll(s *review.Session, accepted bool) {
	for i, entry := range s.Entries() {
		if entry.Committed() {
			continue
		}
		if err := entry.SetAccepted(accepted); err != nil {
			p.println(FormatError(fmt.Sprintf("entry %d: %v", i+1, err)))
		}
	}
}

func (p *Prompter) print(s string) {
	_, _ = fmt.Fprint(p.writer, s)
}

func (p *Prompter) println(s string) {
	_, _ = fmt.Fprintln(p.writer, s)
}

// parseSelection turns "1,3-5" into sorted zero-based indexes within [0, limit).
func parseSelection(input string, limit int) ([]int, error) {
	seen := make(map[int]bool)
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid choice %q", part)
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("invalid choice %q", part)
			}
		}
		if start > end {
			start, end = end, start
		}
		if start < 1 || end > limit {
			return nil, fmt.Errorf("choice %q out of range 1-%d", part, limit)
		}
		for i := start; i <= end; i++ {
			seen[i-1] = true
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("invalid choice %q", input)
	}

	indexes := make([]int, 0, len(seen))
	for idx := range seen {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes, nil
}
