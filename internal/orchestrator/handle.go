package orchestrator

import "context"

// Handle is the caller-facing view of a running Index call: a progress
// stream, a cancel function, and a blocking wait for the terminal summary
// (§6's controller interface: "index(roots[], options)→IndexingHandle
// {progress,file_failed,summary,cancel()}").
type Handle struct {
	progress chan ProgressEvent
	result   chan Summary
	errc     chan error
	cancel   context.CancelFunc
}

// Progress returns the channel of incremental progress events. It closes
// when the run finishes, whether by completion, cancellation, or fatal
// error.
func (h *Handle) Progress() <-chan ProgressEvent {
	return h.progress
}

// Cancel requests cooperative cancellation. The run stops at its next
// suspension point (§5) leaving the stores and manifest internally
// consistent; already-committed files are not rolled back.
func (h *Handle) Cancel() {
	h.cancel()
}

// Wait blocks until the run finishes and returns its terminal summary. A
// non-nil error indicates the run aborted (disk-write failure or schema
// mismatch, §7) rather than completing, even partially, to the end of the
// file list.
func (h *Handle) Wait() (Summary, error) {
	summary := <-h.result
	err := <-h.errc
	return summary, err
}
