// Package client is a typed HTTP client for the Webhound dataset API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/webpuppy/webhound-go/internal/models"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
}

func NewClient(baseURL string, logger *zerolog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}, nil
}

// SetHTTPClient replaces the underlying transport, mainly for tests.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var out models.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateDataset submits a query for dataset generation. A 400 response is
// decoded into a PreprocessingError so callers can distinguish "the backend
// rejected this query" from transport failures.
func (c *Client) GenerateDataset(ctx context.Context, query string) (*models.GenerateResponse, error) {
	var out models.GenerateResponse
	err := c.do(ctx, http.MethodPost, "/api/datasets/generate", models.GenerateRequest{Query: query}, &out)
	if err != nil {
		if statusErr, ok := err.(*StatusError); ok && statusErr.StatusCode == http.StatusBadRequest {
			var data models.PreprocessingErrorData
			if jsonErr := json.Unmarshal([]byte(statusErr.Body), &data); jsonErr == nil && data.Message != "" {
				return nil, &PreprocessingError{Data: data}
			}
		}
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetResults(ctx context.Context, jobID string) (*models.DatasetResult, error) {
	var out models.DatasetResult
	if err := c.do(ctx, http.MethodGet, "/api/datasets/"+url.PathEscape(jobID)+"/results", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRecentQueries(ctx context.Context, limit int) (*models.RecentQueriesResponse, error) {
	var out models.RecentQueriesResponse
	path := fmt.Sprintf("/api/queries/recent?limit=%d", limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRawData(ctx context.Context, jobID string) (*models.RawDataResponse, error) {
	var out models.RawDataResponse
	if err := c.do(ctx, http.MethodGet, "/api/datasets/"+url.PathEscape(jobID)+"/raw", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RateJob(ctx context.Context, jobID string, rating models.Rating) (*models.RatingResponse, error) {
	var out models.RatingResponse
	path := "/api/jobs/" + url.PathEscape(jobID) + "/rate"
	if err := c.do(ctx, http.MethodPost, path, models.RatingRequest{Rating: rating}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRatingStats(ctx context.Context) (*models.RatingStats, error) {
	var out models.RatingStats
	if err := c.do(ctx, http.MethodGet, "/api/jobs/rating-stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadURL returns the CSV export endpoint for a job. The export itself is
// produced server-side; callers hand this URL to a browser or fetch it with
// DownloadCSV.
func (c *Client) DownloadURL(jobID string) string {
	return c.baseURL + "/api/datasets/" + url.PathEscape(jobID) + "/download"
}

// DownloadCSV streams the CSV export into w without parsing it.
func (c *Client) DownloadCSV(ctx context.Context, jobID string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(jobID), nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return 0, err
	}
	return io.Copy(w, resp.Body)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60
		if header := resp.Header.Get("Retry-After"); header != "" {
			if parsed, err := strconv.Atoi(header); err == nil {
				retryAfter = parsed
			}
		}
		return &RateLimitError{RetryAfterSeconds: retryAfter}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(bytes.TrimSpace(text)),
		}
	}
	return nil
}
