package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/georgejguo/retimer-core/internal/retimer"
)

// recordTimeout bounds each audit write so a stalled database cannot
// block the registry's event fan-out.
const recordTimeout = 5 * time.Second

// Recorder persists registry lifecycle events to the audit log.
// It implements retimer.Sink; failures are logged, never propagated,
// so a broken audit trail cannot disturb registration itself.
type Recorder struct {
	repo   Repository
	source string
	logger *slog.Logger
}

// NewRecorder creates a Recorder writing to repo. The source string is
// stamped onto every entry (for example "api" or "startup").
func NewRecorder(repo Repository, source string, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{repo: repo, source: source, logger: logger}
}

// HandleEvent records an attach or detach transition.
func (r *Recorder) HandleEvent(e retimer.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	entry := &Entry{
		Action:     string(e.Type),
		HandleName: e.Name,
		HandleID:   e.ID,
		ParentNode: e.ParentNode,
		Source:     r.source,
		CreatedAt:  e.Timestamp,
	}

	if err := r.repo.Record(ctx, entry); err != nil {
		r.logger.Error("failed to record audit entry",
			"action", entry.Action,
			"handle", entry.HandleName,
			"error", err)
	}
}
