package extractor

import (
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// probeSize bounds how much of a document an identification probe reads.
const probeSize = 8 * 1024

// readHead reads up to n bytes from the start of doc.
func readHead(doc model.Document, n int) ([]byte, error) {
	f, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return buf[:read], nil
}
