// Package api is a stub Webhound backend implementing the dataset API
// contract for local development and integration tests.
package api

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/emicklei/go-restful/v3"
	"github.com/rs/zerolog"

	"github.com/webpuppy/webhound-go/internal/api/middleware"
	"github.com/webpuppy/webhound-go/internal/models"
	"github.com/webpuppy/webhound-go/internal/validation"
)

type Handler struct {
	store     *Store
	validator *validation.Validator
	logger    *zerolog.Logger
}

func NewHandler(store *Store, validator *validation.Validator, logger *zerolog.Logger) *Handler {
	return &Handler{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// POST /api/datasets/generate
// The stub applies the same classifier the client runs locally, so a query
// that slips past a stale client still gets the structured 400.
func (h *Handler) Generate(req *restful.Request, resp *restful.Response) {
	var genRequest models.GenerateRequest
	if err := req.ReadEntity(&genRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	query := strings.TrimSpace(genRequest.Query)
	result := h.validator.Validate(query)
	if query == "" || !result.IsValid {
		reasons := make([]string, 0, len(result.BlockedReasons))
		for _, reason := range result.BlockedReasons {
			reasons = append(reasons, string(reason))
		}
		queryLength := utf8.RuneCountInString(query)
		h.logger.Info().Strs("blocked_reasons", reasons).Int("query_length", queryLength).Msg("query rejected")
		resp.WriteHeaderAndEntity(http.StatusBadRequest, models.PreprocessingErrorData{
			Error:          "blocked_query",
			Message:        validation.BlockedQueryMessage(result.BlockedReasons),
			BlockedReasons: reasons,
			QueryLength:    queryLength,
		})
		return
	}

	job := h.store.CreateJob(query)
	h.logger.Info().Str("job_id", job.ID).Msg("job accepted")
	resp.WriteHeaderAndEntity(http.StatusAccepted, models.GenerateResponse{
		JobID:  job.ID,
		Status: models.JobStatusProcessing,
	})
}

// GET /api/datasets/{job_id}/results
func (h *Handler) Results(req *restful.Request, resp *restful.Response) {
	jobID := req.PathParameter("job_id")
	result, ok := h.store.Result(jobID)
	if !ok {
		middleware.HandleError(resp, fmt.Errorf("job %s not found", jobID), http.StatusNotFound)
		return
	}
	resp.WriteHeaderAndEntity(http.StatusOK, result)
}

// GET /api/datasets/{job_id}/raw
func (h *Handler) Raw(req *restful.Request, resp *restful.Response) {
	jobID := req.PathParameter("job_id")
	raw, ok := h.store.Raw(jobID)
	if !ok {
		middleware.HandleError(resp, fmt.Errorf("job %s not found", jobID), http.StatusNotFound)
		return
	}
	resp.WriteHeaderAndEntity(http.StatusOK, raw)
}

// GET /api/datasets/{job_id}/download
func (h *Handler) Download(req *restful.Request, resp *restful.Response) {
	jobID := req.PathParameter("job_id")
	result, ok := h.store.Result(jobID)
	if !ok {
		middleware.HandleError(resp, fmt.Errorf("job %s not found", jobID), http.StatusNotFound)
		return
	}
	if result.Status != models.JobStatusCompleted {
		middleware.HandleError(resp, fmt.Errorf("job %s is not completed", jobID), http.StatusConflict)
		return
	}

	resp.Header().Set("Content-Type", "text/csv")
	resp.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", jobID+".csv"))
	resp.WriteHeader(http.StatusOK)

	if err := writeCSV(resp, result.Dataset); err != nil {
		h.logger.Error().Err(err).Str("job_id", jobID).Msg("CSV export failed")
	}
}

// GET /api/queries/recent?limit=N
func (h *Handler) Recent(req *restful.Request, resp *restful.Response) {
	limit := 10
	if raw := req.QueryParameter("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	resp.WriteHeaderAndEntity(http.StatusOK, h.store.Recent(limit))
}

// POST /api/jobs/{job_id}/rate
func (h *Handler) Rate(req *restful.Request, resp *restful.Response) {
	jobID := req.PathParameter("job_id")

	var ratingRequest models.RatingRequest
	if err := req.ReadEntity(&ratingRequest); err != nil {
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if ratingRequest.Rating != models.RatingGoodDog && ratingRequest.Rating != models.RatingBadDog {
		middleware.HandleError(resp, fmt.Errorf("rating must be good_dog or bad_dog"), http.StatusBadRequest)
		return
	}

	response, ok := h.store.Rate(jobID, ratingRequest.Rating)
	if !ok {
		middleware.HandleError(resp, fmt.Errorf("job %s not found", jobID), http.StatusNotFound)
		return
	}
	h.logger.Info().Str("job_id", jobID).Str("rating", string(ratingRequest.Rating)).Msg("job rated")
	resp.WriteHeaderAndEntity(http.StatusOK, response)
}

// GET /api/jobs/rating-stats
func (h *Handler) RatingStats(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, h.store.RatingStats())
}

// GET /api/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	resp.WriteHeaderAndEntity(http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	})
}

func writeCSV(resp *restful.Response, dataset []map[string]any) error {
	writer := csv.NewWriter(resp)

	var columns []string
	if len(dataset) > 0 {
		for column := range dataset[0] {
			columns = append(columns, column)
		}
		sort.Strings(columns)
	}
	if err := writer.Write(columns); err != nil {
		return err
	}

	for _, row := range dataset {
		record := make([]string, len(columns))
		for i, column := range columns {
			record[i] = fmt.Sprint(row[column])
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
