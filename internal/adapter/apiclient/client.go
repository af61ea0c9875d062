package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/burenotti/go_bmi_backend/internal/domain/bmi"
	"github.com/google/uuid"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

var (
	ErrFetchFailed = errors.New("failed to fetch bmi records")
	ErrSaveFailed  = errors.New("failed to save bmi record")
)

const (
	listPath   = "/api/user/bmi"
	createPath = "/api/create/bmi"
)

// Client talks to the BMI backend. Every call is a single attempt.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) ListRecords(ctx context.Context) ([]bmi.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+listPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer drain(resp.Body)

	if !success(resp.StatusCode) {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetchFailed, resp.StatusCode)
	}

	records := make([]bmi.Record, 0)
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrFetchFailed, err)
	}
	if records == nil {
		records = make([]bmi.Record, 0)
	}

	c.logger.Debug("bmi records fetched", "count", len(records))
	return records, nil
}

type createRequest struct {
	ID string `json:"id"`
	bmi.Record
}

func (c *Client) CreateRecord(ctx context.Context, record bmi.Record) error {
	body, err := json.Marshal(createRequest{
		ID:     uuid.NewString(),
		Record: record,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	defer drain(resp.Body)

	if !success(resp.StatusCode) {
		return fmt.Errorf("%w: unexpected status %d", ErrSaveFailed, resp.StatusCode)
	}

	c.logger.Debug("bmi record saved", "bmi", record.BMI, "category", record.Category)
	return nil
}

func success(status int) bool {
	return status >= 200 && status < 300
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
