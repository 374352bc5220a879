package models

// Status represents the lifecycle state of a media record
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is an end state of the record lifecycle
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Unresolved reports whether the record is still waiting on generation output
func (s Status) Unresolved() bool {
	return s == StatusPending || s == StatusProcessing
}

// Source represents which creation surface produced a record
type Source string

const (
	SourceShotCreator      Source = "shot-creator"
	SourceShotAnimator     Source = "shot-animator"
	SourceLayoutAnnotation Source = "layout-annotation"
)
