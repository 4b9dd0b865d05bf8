package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/use-agent/skim/config"
	"github.com/use-agent/skim/discover"
	"github.com/use-agent/skim/models"
	"github.com/use-agent/skim/webhook"
)

// BatchStore runs batch jobs and keeps them queryable until they expire.
//
// All jobs share one pool of cfg.Concurrency page slots; each page is an
// independent discovery with no state shared between pages.
type BatchStore struct {
	d   *discover.Discoverer
	cfg config.BatchConfig

	jobs   sync.Map // id -> *models.BatchJob
	slots  chan struct{}
	active atomic.Int32
	wg     sync.WaitGroup
}

// NewBatchStore creates a store that runs pages through d.
func NewBatchStore(d *discover.Discoverer, cfg config.BatchConfig) *BatchStore {
	n := cfg.Concurrency
	if n <= 0 {
		n = 5
	}
	return &BatchStore{
		d:     d,
		cfg:   cfg,
		slots: make(chan struct{}, n),
	}
}

// Janitor expires finished jobs older than the retention period until ctx
// is cancelled.
func (s *BatchStore) Janitor(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expire(time.Now().Add(-s.cfg.Retention).Unix())
		}
	}
}

func (s *BatchStore) expire(cutoff int64) {
	s.jobs.Range(func(key, value any) bool {
		job := value.(*models.BatchJob)
		if job.CreatedAt < cutoff && job.Snapshot().Status != models.BatchProcessing {
			s.jobs.Delete(key)
		}
		return true
	})
}

// Stats reports the pool size and the number of running jobs.
func (s *BatchStore) Stats() models.BatchStats {
	return models.BatchStats{
		MaxConcurrent: cap(s.slots),
		ActiveJobs:    int(s.active.Load()),
	}
}

// Wait blocks until every submitted job has finished.
func (s *BatchStore) Wait() {
	s.wg.Wait()
}

// Submit validates req, registers a job and starts it in the background.
func (s *BatchStore) Submit(req models.BatchRequest) (*models.BatchJob, error) {
	if len(req.URLs) == 0 {
		return nil, models.NewDiscoverError(models.ErrCodeMissingParameter, "urls must not be empty", nil)
	}
	if s.cfg.MaxURLs > 0 && len(req.URLs) > s.cfg.MaxURLs {
		return nil, models.NewDiscoverError(models.ErrCodeInvalidInput,
			fmt.Sprintf("maximum %d URLs per batch", s.cfg.MaxURLs), nil)
	}

	// Reject bad shared options up front instead of failing every page.
	probe := req.Template(req.URLs[0])
	probe.Defaults("structure")
	probe.URL = "https://example.com/"
	if _, err := discover.ParseOptions(&probe); err != nil {
		return nil, err
	}

	job := models.NewBatchJob("batch-"+uuid.NewString(), len(req.URLs), time.Now().Unix())
	s.jobs.Store(job.ID, job)

	s.active.Add(1)
	s.wg.Add(1)
	go s.run(job, req)

	return job, nil
}

// Get returns the job with the given id.
func (s *BatchStore) Get(id string) (*models.BatchJob, bool) {
	v, ok := s.jobs.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*models.BatchJob), true
}

func (s *BatchStore) run(job *models.BatchJob, req models.BatchRequest) {
	defer s.wg.Done()
	defer s.active.Add(-1)

	var pages sync.WaitGroup
	for i, target := range req.URLs {
		pages.Add(1)
		go func(idx int, target string) {
			defer pages.Done()
			s.slots <- struct{}{}
			defer func() { <-s.slots }()

			one := req.Template(target)
			resp, err := s.d.Discover(context.Background(), &one)
			if err != nil {
				resp.Success = false
				resp.Error = asDiscoverError(err).ToDetail()
			}
			job.Record(idx, resp)
		}(i, target)
	}
	pages.Wait()

	status := job.Finish()
	slog.Info("batch job finished",
		"id", job.ID,
		"status", status,
		"total", job.Total,
	)

	if req.WebhookURL != "" {
		webhook.DeliverAsync(req.WebhookURL, req.WebhookSecret,
			webhook.NewEvent(webhook.EventBatchCompleted, job.ID, job.Snapshot()))
	}
}

// PostBatch returns a handler for POST /api/v1/batch/discover.
func PostBatch(s *BatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBatchError(c, models.NewDiscoverError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}

		job, err := s.Submit(req)
		if err != nil {
			respondBatchError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, models.BatchResponse{
			Success: true,
			ID:      job.ID,
			Status:  models.BatchProcessing,
			Total:   job.Total,
		})
	}
}

// GetBatch returns a handler for GET /api/v1/batch/:id.
func GetBatch(s *BatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := s.Get(c.Param("id"))
		if !ok {
			c.JSON(http.StatusNotFound, models.BatchResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeNoResults,
					Message: "batch job not found",
				},
			})
			return
		}
		c.JSON(http.StatusOK, job.Snapshot())
	}
}

func respondBatchError(c *gin.Context, err error) {
	de := asDiscoverError(err)
	c.JSON(mapErrorToStatus(de), models.BatchResponse{Error: de.ToDetail()})
}
