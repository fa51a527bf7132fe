package watcher

import (
	"time"

	"github.com/urbanmesh/zonegate/internal/ingest"
)

type EventType int

const (
	EventCreate EventType = iota
	EventModify
	EventDelete
	EventRename
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	case EventDelete:
		return "delete"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

type FileEvent struct {
	Path      string
	Type      EventType
	Timestamp time.Time
}

// batchPriority maps the size of a flushed event batch to an ingest
// priority. Bulk drops (whole jurisdiction folders copied in) ingest at
// low priority so individually edited regulation files stay responsive.
func batchPriority(events []FileEvent) ingest.JobPriority {
	count := len(events)

	if count > 10 {
		return ingest.PriorityLow
	}

	if count >= 3 {
		return ingest.PriorityNormal
	}

	return ingest.PriorityHigh
}
