package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a context on SIGINT/SIGTERM and tells the user
// what happened to the import.
type InterruptHandler struct {
	writer      io.Writer
	interrupted bool
	committing  bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{
		writer: writer,
	}
}

// HandleInterrupts returns a context that is canceled on the first interrupt.
// Signal handling stops once ctx is done.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			h.interrupt()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx
}

// SetCommitting records that the ledger is being written, which changes the
// interrupt message.
func (h *InterruptHandler) SetCommitting(committing bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.committing = committing
}

func (h *InterruptHandler) interrupt() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.interrupted {
		return
	}
	h.interrupted = true
	h.showInterruptMessage()
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning("Import interrupted!")

	if h.committing {
		msg += "\n" + FormatInfo("The ledger write already in progress will complete.")
	} else {
		msg += "\n" + FormatInfo("Nothing was written to the ledger.")
	}

	msg += "\n" + FormatInfo("See you later! "+SpiceIcon) + "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
