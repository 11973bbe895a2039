package content

import "time"

// TaskOption is one choice offered by a choice-awaiting task.
type TaskOption struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TaskMetadata carries the fields that distinguish one-shot, recurring, and
// choice tasks. All three share the same Task record; the worker decides
// how to interpret the metadata present.
type TaskMetadata struct {
	// UpdateIntervalMs, when set, makes this a recurring task: the
	// scheduler dispatches it whenever now >= UpdatedAt + interval.
	UpdateIntervalMs int64 `json:"updateIntervalMs,omitempty"`
	// ScheduledFor, when set, makes this a one-shot task due at that time.
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	// Options, when non-empty, makes this a choice task awaiting an
	// external signal naming one of the options.
	Options []TaskOption `json:"options,omitempty"`
	// Payload is domain-specific data the worker defined out of band.
	Payload map[string]any `json:"payload,omitempty"`
}

// Task is a unit of scheduled work. Name must match a registered worker.
type Task struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	AgentID     string        `json:"agentId"`
	RoomID      string        `json:"roomId,omitempty"`
	WorldID     string        `json:"worldId,omitempty"`
	EntityID    string        `json:"entityId,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	Metadata    *TaskMetadata `json:"metadata,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// IsRecurring reports whether the task carries a recurring update interval.
func (t *Task) IsRecurring() bool {
	return t.Metadata != nil && t.Metadata.UpdateIntervalMs > 0
}

// IsChoice reports whether the task is awaiting an external choice.
func (t *Task) IsChoice() bool {
	return t.Metadata != nil && len(t.Metadata.Options) > 0
}

// DueAt returns when a one-shot task is scheduled to fire, if set.
func (t *Task) DueAt() (time.Time, bool) {
	if t.Metadata == nil || t.Metadata.ScheduledFor == nil {
		return time.Time{}, false
	}
	return *t.Metadata.ScheduledFor, true
}
