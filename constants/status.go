package constants

// JobStatus is the canonical status for rows in extract_jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning   JobStatus = "RUNNING"   // text acquisition or extraction in progress
	JobStatusExtracted JobStatus = "EXTRACTED" // structured result stored
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)
