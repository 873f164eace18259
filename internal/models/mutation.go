package models

import "time"

// MutationStatus tracks a mutation through its lifecycle.
type MutationStatus string

const (
	MutationRunning   MutationStatus = "running"
	MutationSucceeded MutationStatus = "succeeded"
	MutationFailed    MutationStatus = "failed"
)

// MutationRecord is a local history entry for one mutation sent to the backend.
type MutationRecord struct {
	ID          string
	Sequence    int
	Resource    string
	RecordKey   string
	Action      string
	Status      MutationStatus
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// NewMutationRecord creates a running entry started now.
func NewMutationRecord(resource, key, action string) *MutationRecord {
	return &MutationRecord{
		Resource:  resource,
		RecordKey: key,
		Action:    action,
		Status:    MutationRunning,
		StartedAt: time.Now(),
	}
}

// Complete marks the entry as finished, recording err when the mutation failed.
func (m *MutationRecord) Complete(err error) {
	now := time.Now()
	m.CompletedAt = &now
	if err != nil {
		m.Status = MutationFailed
		m.Error = err.Error()
		return
	}
	m.Status = MutationSucceeded
	m.Error = ""
}

// Duration returns how long the mutation took, or zero while it is running.
func (m *MutationRecord) Duration() time.Duration {
	if m.CompletedAt == nil {
		return 0
	}
	return m.CompletedAt.Sub(m.StartedAt)
}
