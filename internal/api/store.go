package api

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webpuppy/webhound-go/internal/models"
)

// JobRecord is one submitted query tracked by the stub backend.
type JobRecord struct {
	ID        string
	Query     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Rating    models.Rating
}

// Store is the stub backend's in-memory job table. Jobs report "processing"
// until the configured delay has elapsed, then a small deterministic dataset.
type Store struct {
	mu              sync.Mutex
	jobs            map[string]*JobRecord
	order           []string
	processingDelay time.Duration
	now             func() time.Time
}

func NewStore(processingDelay time.Duration) *Store {
	return &Store{
		jobs:            make(map[string]*JobRecord),
		processingDelay: processingDelay,
		now:             time.Now,
	}
}

func (s *Store) CreateJob(query string) *JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &JobRecord{
		ID:        uuid.NewString(),
		Query:     query,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	return job
}

func (s *Store) Get(jobID string) (*JobRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	return job, ok
}

func (s *Store) status(job *JobRecord) models.JobStatus {
	if s.now().Sub(job.CreatedAt) >= s.processingDelay {
		return models.JobStatusCompleted
	}
	return models.JobStatusProcessing
}

// Result materializes the job view for the results endpoint.
func (s *Store) Result(jobID string) (*models.DatasetResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, false
	}

	result := &models.DatasetResult{
		JobID:   job.ID,
		Status:  s.status(job),
		Query:   job.Query,
		Dataset: []map[string]any{},
		Sources: []string{},
	}
	if result.Status == models.JobStatusCompleted {
		result.Dataset = sampleDataset(job.Query)
		result.Sources = []string{"https://stub.webhound.local/source/1", "https://stub.webhound.local/source/2"}
		result.TotalRecords = len(result.Dataset)
		result.ValidationStatus = "validated"
		result.QualityScore = "high"
	}
	return result, true
}

func (s *Store) Rate(jobID string, rating models.Rating) (*models.RatingResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, false
	}
	job.Rating = rating
	job.UpdatedAt = s.now()
	return &models.RatingResponse{
		JobID:   jobID,
		Rating:  string(rating),
		Success: true,
		Message: "Thanks for the feedback!",
	}, true
}

func (s *Store) RatingStats() models.RatingStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.RatingStats{}
	for _, job := range s.jobs {
		switch job.Rating {
		case models.RatingGoodDog:
			stats.GoodDogs++
		case models.RatingBadDog:
			stats.BadDogs++
		}
	}
	stats.TotalRated = stats.GoodDogs + stats.BadDogs
	if stats.TotalRated > 0 {
		stats.GoodPercentage = 100 * float64(stats.GoodDogs) / float64(stats.TotalRated)
		stats.BadPercentage = 100 * float64(stats.BadDogs) / float64(stats.TotalRated)
	}
	return stats
}

// Recent returns the newest jobs first, plus per-query aggregates.
func (s *Store) Recent(limit int) models.RecentQueriesResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	response := models.RecentQueriesResponse{
		RecentQueries: []models.RecentQuery{},
		UniqueQueries: []models.UniqueRecentQuery{},
	}

	for i := len(s.order) - 1; i >= 0 && len(response.RecentQueries) < limit; i-- {
		job := s.jobs[s.order[i]]
		response.RecentQueries = append(response.RecentQueries, models.RecentQuery{
			JobID:      job.ID,
			Query:      job.Query,
			CreatedAt:  job.CreatedAt.Format(time.RFC3339),
			Status:     string(s.status(job)),
			UserRating: string(job.Rating),
		})
	}

	counts := make(map[string]*models.UniqueRecentQuery)
	for _, id := range s.order {
		job := s.jobs[id]
		unique, ok := counts[job.Query]
		if !ok {
			unique = &models.UniqueRecentQuery{Query: job.Query}
			counts[job.Query] = unique
		}
		unique.TimesAsked++
		unique.LastAsked = job.CreatedAt.Format(time.RFC3339)
	}
	for _, unique := range counts {
		response.UniqueQueries = append(response.UniqueQueries, *unique)
	}
	sort.Slice(response.UniqueQueries, func(i, j int) bool {
		return response.UniqueQueries[i].Query < response.UniqueQueries[j].Query
	})
	return response
}

func (s *Store) Raw(jobID string) (*models.RawDataResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, false
	}
	return &models.RawDataResponse{
		JobID:     job.ID,
		Query:     job.Query,
		Status:    string(s.status(job)),
		RawData:   map[string]any{"query": job.Query, "engine": "stub"},
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.Format(time.RFC3339),
	}, true
}

func sampleDataset(query string) []map[string]any {
	rows := make([]map[string]any, 0, 3)
	for i := 1; i <= 3; i++ {
		rows = append(rows, map[string]any{
			"rank":  i,
			"item":  fmt.Sprintf("result %d", i),
			"notes": fmt.Sprintf("stub row %d for %q", i, query),
		})
	}
	return rows
}
