// Package headshots drives the headshot ingestion flow: analyzing a dropped
// set of image files against a project roster, and submitting the confirmed
// pairings to the image backend as one multi-file batch.
package headshots

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/counselboard/roster/pkg/tracing"
)

const (
	batchUploadPath  = "/admin/upload-attorney-image-batch"
	singleUploadPath = "/admin/upload-attorney-image"
)

// BatchItem is one file payload plus its attorney pairing. Items travel in a
// single request; the backend correlates files with metadata positionally.
type BatchItem struct {
	AttorneyID string
	FileName   string
	Content    []byte
}

// ItemResult is the backend's outcome for one submitted file, in submission
// order. Status is "uploaded", "skipped_existing", or an error indicator with
// Error carrying the message.
type ItemResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type batchResponse struct {
	Results []ItemResult `json:"results"`
}

type itemMeta struct {
	AttorneyID string `json:"attorney_id"`
}

// ClientConfig holds settings for the image backend client
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

// Client submits headshot uploads to the external image backend
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     ectologger.Logger
}

// NewClient creates an image backend client
func NewClient(cfg ClientConfig, logger ectologger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logger,
	}
}

// UploadBatch submits all items as one multipart request and returns the
// per-item results in submission order. The request carries the file payloads
// under "files" and a parallel "metas" JSON array of {attorney_id} objects;
// ordering between the two must be preserved exactly because the backend
// pairs them by position, not by name.
func (c *Client) UploadBatch(ctx context.Context, projectTitle string, items []BatchItem) ([]ItemResult, error) {
	ctx, span := tracing.StartSpan(ctx, "headshots.Client.UploadBatch")
	defer span.End()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	metas := make([]itemMeta, 0, len(items))
	for _, item := range items {
		part, err := writer.CreateFormFile("files", item.FileName)
		if err != nil {
			return nil, fmt.Errorf("failed to build batch request: %w", err)
		}
		if _, err := part.Write(item.Content); err != nil {
			return nil, fmt.Errorf("failed to build batch request: %w", err)
		}
		metas = append(metas, itemMeta{AttorneyID: item.AttorneyID})
	}

	metasJSON, err := json.Marshal(metas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch metadata: %w", err)
	}
	if err := writer.WriteField("metas", string(metasJSON)); err != nil {
		return nil, fmt.Errorf("failed to build batch request: %w", err)
	}
	if err := writer.WriteField("project_title", projectTitle); err != nil {
		return nil, fmt.Errorf("failed to build batch request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build batch request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+batchUploadPath, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("Batch upload request failed")
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.WithContext(ctx).WithFields(map[string]any{
			"status": resp.StatusCode,
			"body":   string(payload),
		}).Error("Batch upload rejected by image backend")
		return nil, fmt.Errorf("image backend returned status %d", resp.StatusCode)
	}

	var parsed batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode batch response: %w", err)
	}

	return parsed.Results, nil
}

// UploadSingle submits one file for one attorney. Used outside batch mode;
// the response is a bare success or failure.
func (c *Client) UploadSingle(ctx context.Context, projectTitle, attorneyID, fileName string, content []byte) error {
	ctx, span := tracing.StartSpan(ctx, "headshots.Client.UploadSingle")
	defer span.End()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	if err := writer.WriteField("project_title", projectTitle); err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	if err := writer.WriteField("attorney_id", attorneyID); err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+singleUploadPath, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Error("Single upload request failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("image backend returned status %d", resp.StatusCode)
	}

	return nil
}
