package types

// SubmitRequest is the HTTP payload for submitting a job to a pool.
type SubmitRequest struct {
	// Job is the name of the operation to run on the model's worker.
	// example: addItem
	Job string `json:"job" example:"addItem"`
	// Data is opaque job input, cloned across the worker boundary.
	Data any `json:"data,omitempty"`
}

// SubmitResponse wraps the Result of a completed job.
type SubmitResponse struct {
	// HasError is true when the job failed inside the worker.
	HasError bool `json:"has_error,omitempty"`
	// Message carries the error description when HasError is true.
	Message string `json:"message,omitempty"`
	// Value carries the success value when HasError is false.
	Value any `json:"value,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: pool closed
	Error string `json:"error" example:"pool closed"`
	// HTTP status code.
	// example: 409
	Code int `json:"code" example:"409"`
}

// PoolStatus summarizes one pool for GET /pools/{name}/status.
type PoolStatus struct {
	// Name of the model this pool serves.
	Name string `json:"name" example:"ORDER"`
	// State is the pool's lifecycle state.
	State string `json:"state" example:"open"`
	// TotalThreads is the current number of live Threads.
	TotalThreads int `json:"total_threads" example:"2"`
	// FreeThreads is the number of idle Threads.
	FreeThreads int `json:"free_threads" example:"1"`
	// WaitingJobs is the number of jobs queued awaiting a Thread.
	WaitingJobs int `json:"waiting_jobs" example:"0"`
	// JobsRequested is the lifetime count of submitted jobs.
	JobsRequested uint64 `json:"jobs_requested" example:"42"`
	// JobsQueued is the lifetime count of jobs that had to wait.
	JobsQueued uint64 `json:"jobs_queued" example:"3"`
	// QueueRate is round(100*JobsQueued/JobsRequested).
	QueueRate int `json:"queue_rate" example:"7"`
	// Reloads is the lifetime count of completed reloads.
	Reloads uint64 `json:"reloads" example:"1"`
}

// RegistryStatus summarizes every known pool.
type RegistryStatus struct {
	Pools []PoolStatus `json:"pools"`
}
