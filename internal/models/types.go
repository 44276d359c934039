package models

type JobStatus string

const (
	JobStatusProcessing    JobStatus = "processing"
	JobStatusCompleted     JobStatus = "completed"
	JobStatusFailed        JobStatus = "failed"
	JobStatusQuotaExceeded JobStatus = "quota_exceeded"
)

// Terminal reports whether a job in this status will never change again.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusQuotaExceeded:
		return true
	}
	return false
}

type Rating string

const (
	RatingGoodDog Rating = "good_dog"
	RatingBadDog  Rating = "bad_dog"
)

// GenerateRequest is the body of POST /api/datasets/generate.
type GenerateRequest struct {
	Query string `json:"query"`
}

// GenerateResponse acknowledges a submitted job.
type GenerateResponse struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

// DatasetResult is the full job view returned by GET /api/datasets/{id}/results.
// Dataset rows are schemaless maps; the row shape depends on the query.
type DatasetResult struct {
	JobID            string           `json:"job_id"`
	Status           JobStatus        `json:"status"`
	Query            string           `json:"query"`
	Dataset          []map[string]any `json:"dataset"`
	Sources          []string         `json:"sources"`
	TotalRecords     int              `json:"total_records"`
	ValidationStatus string           `json:"validation_status"`
	QualityScore     string           `json:"quality_score"`
	ValidationNotes  string           `json:"validation_notes,omitempty"`
}

type RecentQuery struct {
	JobID      string `json:"job_id,omitempty"`
	Query      string `json:"query"`
	CreatedAt  string `json:"created_at"`
	Status     string `json:"status"`
	UserRating string `json:"user_rating,omitempty"`
}

type UniqueRecentQuery struct {
	Query      string `json:"query"`
	LastAsked  string `json:"last_asked"`
	TimesAsked int    `json:"times_asked"`
}

type RecentQueriesResponse struct {
	RecentQueries []RecentQuery       `json:"recent_queries"`
	UniqueQueries []UniqueRecentQuery `json:"unique_queries"`
}

// RawDataResponse is the unprocessed job record from GET /api/datasets/{id}/raw.
type RawDataResponse struct {
	JobID     string         `json:"job_id"`
	Query     string         `json:"query"`
	Status    string         `json:"status"`
	RawData   map[string]any `json:"raw_data"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

type RatingRequest struct {
	Rating Rating `json:"rating"`
}

type RatingResponse struct {
	JobID   string `json:"job_id"`
	Rating  string `json:"rating"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type RatingStats struct {
	TotalRated     int     `json:"total_rated"`
	GoodDogs       int     `json:"good_dogs"`
	BadDogs        int     `json:"bad_dogs"`
	GoodPercentage float64 `json:"good_percentage"`
	BadPercentage  float64 `json:"bad_percentage"`
}

// PreprocessingErrorData is the structured 400 body returned when the backend's
// own preprocessing rejects a query before job creation.
type PreprocessingErrorData struct {
	Error          string   `json:"error"`
	Message        string   `json:"message"`
	BlockedReasons []string `json:"blocked_reasons"`
	QueryLength    int      `json:"query_length"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
