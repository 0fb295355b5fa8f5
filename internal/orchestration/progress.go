package orchestration

import "github.com/kaveh8866/SemantIQ/internal/models"

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventPipelineStart    EventType = "pipeline_start"
	EventPipelineComplete EventType = "pipeline_complete"
	EventPipelineStopped  EventType = "pipeline_stopped"
	EventEntryStart       EventType = "entry_start"
	EventEntryComplete    EventType = "entry_complete"
	EventEntryCached      EventType = "entry_cached"
	EventEntryPlanned     EventType = "entry_planned"
	EventEntryFailed      EventType = "entry_failed"
)

// ProgressEvent represents a progress update. Index is 1-based; pipeline
// level events leave it at zero.
type ProgressEvent struct {
	EventType   EventType
	Index       int
	Total       int
	RunConfig   models.RunConfig
	Fingerprint string
	RunID       string
	Status      EntryStatus
	DurationMs  int64
	Err         error
	Details     map[string]any
}
