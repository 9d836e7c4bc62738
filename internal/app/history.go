package app

import (
	"context"
	"time"

	"epicscheduler/internal/eventbus"
	"epicscheduler/internal/scheduler"
	"epicscheduler/internal/storage"
	logx "epicscheduler/pkg/logx"
)

// recordHistory appends every scheduler event to st until ctx is done or
// events is closed.
func recordHistory(ctx context.Context, events <-chan eventbus.Event, st storage.Store, log logx.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			entry := storage.Entry{At: e.Time, Event: e.Type}
			if d, ok := e.Data.(scheduler.EventData); ok {
				entry.Key = d.Key
				entry.Due = d.Due
				entry.Repeat = int64(d.Repeat / time.Second)
				entry.Results = d.Results
				entry.Overdue = d.Overdue
				entry.Error = d.Error
			}
			actx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := st.Append(actx, entry); err != nil {
				log.Warn("history append failed", logx.String("event", e.Type), logx.Err(err))
			}
			cancel()
		}
	}
}
