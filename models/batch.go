package models

import "sync"

// BatchRequest is the payload for POST /api/v1/batch/discover.
type BatchRequest struct {
	// URLs is the list of listing pages to analyse. Required.
	URLs []string `json:"urls" binding:"required,min=1"`

	// Keywords, Logic, Strategy and Format apply to every URL.
	Keywords string `json:"keywords"`
	Logic    string `json:"logic"`
	Strategy string `json:"strategy,omitempty"`
	Format   string `json:"format,omitempty"`

	// WebhookURL receives a batch.completed event when the job finishes.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`

	// WebhookSecret signs the webhook body with HMAC-SHA256.
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Template returns the per-URL request for target.
func (r *BatchRequest) Template(target string) DiscoverRequest {
	return DiscoverRequest{
		URL:      target,
		Keywords: r.Keywords,
		Logic:    r.Logic,
		Strategy: r.Strategy,
		Format:   r.Format,
	}
}

// BatchResponse is the immediate response for POST /api/v1/batch/discover.
type BatchResponse struct {
	Success bool         `json:"success"`
	ID      string       `json:"id,omitempty"`
	Status  string       `json:"status,omitempty"`
	Total   int          `json:"total,omitempty"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// BatchStatusResponse is the response for GET /api/v1/batch/:id.
type BatchStatusResponse struct {
	ID        string              `json:"id"`
	Status    string              `json:"status"`
	Completed int                 `json:"completed"`
	Total     int                 `json:"total"`
	Results   []*DiscoverResponse `json:"results,omitempty"`
}

// Batch job states.
const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchPartial    = "partial"
	BatchFailed     = "failed"
)

// BatchJob tracks an in-progress batch discovery.
// It is safe for concurrent use.
type BatchJob struct {
	ID        string
	Total     int
	CreatedAt int64 // unix timestamp

	mu        sync.Mutex
	status    string
	completed int
	results   []*DiscoverResponse
}

// NewBatchJob creates a job in the processing state.
func NewBatchJob(id string, total int, createdAt int64) *BatchJob {
	return &BatchJob{
		ID:        id,
		Total:     total,
		CreatedAt: createdAt,
		status:    BatchProcessing,
		results:   make([]*DiscoverResponse, total),
	}
}

// Record stores the result for URL idx.
func (j *BatchJob) Record(idx int, resp *DiscoverResponse) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.results[idx] = resp
	j.completed++
}

// Finish derives the final status from the recorded results and returns it.
func (j *BatchJob) Finish() string {
	j.mu.Lock()
	defer j.mu.Unlock()

	failed := 0
	for _, r := range j.results {
		if r == nil || !r.Success {
			failed++
		}
	}
	switch {
	case failed == j.Total:
		j.status = BatchFailed
	case failed > 0:
		j.status = BatchPartial
	default:
		j.status = BatchCompleted
	}
	return j.status
}

// Snapshot returns a consistent copy of the job state.
func (j *BatchJob) Snapshot() BatchStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()

	results := make([]*DiscoverResponse, len(j.results))
	copy(results, j.results)
	return BatchStatusResponse{
		ID:        j.ID,
		Status:    j.status,
		Completed: j.completed,
		Total:     j.Total,
		Results:   results,
	}
}
