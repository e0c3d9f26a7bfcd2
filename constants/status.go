package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusPending   JobStatus = "PENDING"   // allocated, model not called yet
	JobStatusRunning   JobStatus = "RUNNING"   // model call in progress
	JobStatusSucceeded JobStatus = "SUCCEEDED" // terminal success
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)

// Terminal reports whether no further transition is allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}
