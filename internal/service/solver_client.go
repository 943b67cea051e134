package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

// RemoteJobState is the solver's view of one job.
type RemoteJobState struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
}

// SolverClient talks to the external scheduling service over HTTP.
type SolverClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewSolverClient constructs a client for the given base URL.
func NewSolverClient(baseURL string, timeout time.Duration, logger *zap.Logger) *SolverClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SolverClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type submitRequest struct {
	Kind     models.SolverJobKind    `json:"kind"`
	Document *models.VersionJSONData `json:"document"`
}

// Submit sends a document to the solver and returns the remote job id.
func (c *SolverClient) Submit(ctx context.Context, kind models.SolverJobKind, doc *models.VersionJSONData) (string, error) {
	body, err := json.Marshal(submitRequest{Kind: kind, Document: doc})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode solver payload")
	}

	var state RemoteJobState
	if err := c.do(ctx, http.MethodPost, "/v1/jobs", bytes.NewReader(body), &state); err != nil {
		return "", err
	}
	if state.ID == "" {
		return "", appErrors.Clone(appErrors.ErrSolverUnavailable, "solver returned no job id")
	}
	return state.ID, nil
}

// Status fetches the current state of a remote job.
func (c *SolverClient) Status(ctx context.Context, remoteID string) (*RemoteJobState, error) {
	var state RemoteJobState
	if err := c.do(ctx, http.MethodGet, "/v1/jobs/"+remoteID, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Cancel asks the solver to abort a remote job. Jobs that already finished
// cancel as a no-op on the solver side.
func (c *SolverClient) Cancel(ctx context.Context, remoteID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/jobs/"+remoteID, nil, nil)
}

func (c *SolverClient) do(ctx context.Context, method, path string, body io.Reader, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build solver request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("solver request failed", zap.String("path", path), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrSolverUnavailable.Code, appErrors.ErrSolverUnavailable.Status, appErrors.ErrSolverUnavailable.Message)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return appErrors.Clone(appErrors.ErrNotFound, "solver job not found")
	}
	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return appErrors.Clone(appErrors.ErrSolverUnavailable, fmt.Sprintf("solver responded %d: %s", resp.StatusCode, payload))
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrSolverUnavailable.Code, appErrors.ErrSolverUnavailable.Status, "failed to decode solver response")
	}
	return nil
}
