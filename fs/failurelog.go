// Package fs provides file-based storage for the failure log.
package fs

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jciesla/mediavault"
)

// DefaultFailureLogName is the fixed filename for the deletion failure log.
const DefaultFailureLogName = "failed_deletions.log"

// Ensure FailureLog implements mediavault.FailureLog at compile time.
var _ mediavault.FailureLog = (*FailureLog)(nil)

// FailureLog is an append-only, human-readable failure log: one line per
// entry, identifier and reason separated by a tab. The file is opened with
// O_APPEND and never truncated, so a later run can read it and retry
// exactly those identifiers.
type FailureLog struct {
	mu   sync.Mutex
	path string
}

// NewFailureLog creates a FailureLog writing to the given path.
func NewFailureLog(path string) *FailureLog {
	return &FailureLog{path: path}
}

// Append durably records one failure. Appends are serialized to prevent
// interleaved partial writes.
func (l *FailureLog) Append(ctx context.Context, identifier, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open failure log: %w", err)
	}
	defer f.Close()

	// Newlines in the reason would corrupt the one-entry-per-line format.
	reason = strings.ReplaceAll(reason, "\n", " ")

	if _, err := fmt.Fprintf(f, "%s\t%s\n", identifier, reason); err != nil {
		return fmt.Errorf("append failure log: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync failure log: %w", err)
	}
	return nil
}
