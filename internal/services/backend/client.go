package backend

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

	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/amelner/gallerysync/internal/config"
	"github.com/amelner/gallerysync/internal/models"
)

const (
	cacheKeyFolders = "folders"
	cacheKeyTotal   = "total_count"
)

// Client talks to the gallery backend over HTTP
type Client struct {
	baseURL    string
	apiKey     string
	userID     string
	httpClient *http.Client
	logger     *logrus.Logger
	tracer     trace.Tracer

	// memo caches folder metadata and the total count between reconciliations;
	// flushed by every mutation so counts never go stale after a write
	memo *gocache.Cache
}

// NewClient creates a new backend client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("backend URL is required")
	}
	if cfg.BackendKey == "" {
		return nil, fmt.Errorf("backend API key is required")
	}

	return &Client{
		baseURL:    cfg.BackendURL,
		apiKey:     cfg.BackendKey,
		userID:     cfg.UserID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		tracer:     otel.Tracer("gallerysync/backend"),
		memo:       gocache.New(cfg.MetadataCacheTTL, time.Minute),
	}, nil
}

// doRequest performs an authenticated HTTP request against the backend and
// classifies failures into the error taxonomy
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	fullURL := c.baseURL + path
	c.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    fullURL,
	}).Debug("Making backend request")

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-User-ID", c.userID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &AuthError{Status: resp.StatusCode, Message: string(bodyBytes)}
	case resp.StatusCode >= 500:
		bodyBytes, _ := io.ReadAll(resp.Body)
		return &TransportError{
			Op:  method + " " + path,
			Err: fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(bodyBytes)),
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// statusResponse is the {success, error} envelope mutations return
type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (r statusResponse) err(op string) error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("%s rejected by backend: %s", op, r.Error)
}

// LoadPageOfRecords fetches one page of the user's records under the given
// filter
func (c *Client) LoadPageOfRecords(ctx context.Context, page, pageSize int, q RecordQuery) (*RecordPage, error) {
	ctx, span := c.tracer.Start(ctx, "backend.load_page")
	defer span.End()

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))
	if q.FolderID != "" {
		params.Set("folder_id", q.FolderID)
	}
	if q.SearchQuery != "" {
		params.Set("q", q.SearchQuery)
	}
	if q.Source != "" {
		params.Set("source", string(q.Source))
	}

	var resp struct {
		Records    []recordRow `json:"records"`
		Total      int         `json:"total"`
		TotalPages int         `json:"total_pages"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/v1/records?"+params.Encode(), nil, &resp); err != nil {
		span.RecordError(err)
		return nil, err
	}

	records := make([]*models.MediaRecord, 0, len(resp.Records))
	for _, row := range resp.Records {
		records = append(records, row.toModel())
	}

	c.logger.WithFields(logrus.Fields{
		"page":  page,
		"count": len(records),
		"total": resp.Total,
	}).Debug("Loaded record page")

	return &RecordPage{
		Records:    records,
		Total:      resp.Total,
		TotalPages: resp.TotalPages,
	}, nil
}

// TotalRecordCount returns the total number of records for the user
func (c *Client) TotalRecordCount(ctx context.Context) (int, error) {
	if cached, ok := c.memo.Get(cacheKeyTotal); ok {
		return cached.(int), nil
	}

	ctx, span := c.tracer.Start(ctx, "backend.total_count")
	defer span.End()

	var resp struct {
		Total int `json:"total"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/v1/records/count", nil, &resp); err != nil {
		span.RecordError(err)
		return 0, err
	}

	c.memo.Set(cacheKeyTotal, resp.Total, gocache.DefaultExpiration)
	return resp.Total, nil
}

// DeleteRecord deletes a record and its stored artifact
func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	ctx, span := c.tracer.Start(ctx, "backend.delete_record")
	defer span.End()

	var resp statusResponse
	if err := c.doRequest(ctx, http.MethodDelete, "/v1/records/"+url.PathEscape(id), nil, &resp); err != nil {
		span.RecordError(err)
		return err
	}
	c.memo.Flush()
	return resp.err("delete")
}

// UpdateReferenceTag persists a record's reference tag
func (c *Client) UpdateReferenceTag(ctx context.Context, id, tag string) error {
	ctx, span := c.tracer.Start(ctx, "backend.update_reference")
	defer span.End()

	body := map[string]string{"reference": tag}
	var resp statusResponse
	if err := c.doRequest(ctx, http.MethodPatch, "/v1/records/"+url.PathEscape(id)+"/reference", body, &resp); err != nil {
		span.RecordError(err)
		return err
	}
	return resp.err("reference update")
}

// ListFolders returns the user's folders with server-derived counts
func (c *Client) ListFolders(ctx context.Context) ([]*models.Folder, error) {
	if cached, ok := c.memo.Get(cacheKeyFolders); ok {
		return cached.([]*models.Folder), nil
	}

	ctx, span := c.tracer.Start(ctx, "backend.list_folders")
	defer span.End()

	var resp struct {
		Folders []folderRow `json:"folders"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/v1/folders", nil, &resp); err != nil {
		span.RecordError(err)
		return nil, err
	}

	folders := make([]*models.Folder, 0, len(resp.Folders))
	for _, row := range resp.Folders {
		folders = append(folders, row.toModel())
	}

	c.memo.Set(cacheKeyFolders, folders, gocache.DefaultExpiration)
	return folders, nil
}

// CreateFolder creates a new folder
func (c *Client) CreateFolder(ctx context.Context, input FolderInput) (*models.Folder, error) {
	ctx, span := c.tracer.Start(ctx, "backend.create_folder")
	defer span.End()

	var resp struct {
		statusResponse
		Folder folderRow `json:"folder"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/v1/folders", input, &resp); err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.memo.Flush()
	if err := resp.err("folder create"); err != nil {
		return nil, err
	}
	return resp.Folder.toModel(), nil
}

// UpdateFolder updates a folder's name or color
func (c *Client) UpdateFolder(ctx context.Context, id string, input FolderInput) (*models.Folder, error) {
	ctx, span := c.tracer.Start(ctx, "backend.update_folder")
	defer span.End()

	var resp struct {
		statusResponse
		Folder folderRow `json:"folder"`
	}
	if err := c.doRequest(ctx, http.MethodPatch, "/v1/folders/"+url.PathEscape(id), input, &resp); err != nil {
		span.RecordError(err)
		return nil, err
	}
	c.memo.Flush()
	if err := resp.err("folder update"); err != nil {
		return nil, err
	}
	return resp.Folder.toModel(), nil
}

// DeleteFolder deletes a folder. Records keep their rows; the backend clears
// their folder assignment.
func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	ctx, span := c.tracer.Start(ctx, "backend.delete_folder")
	defer span.End()

	var resp statusResponse
	if err := c.doRequest(ctx, http.MethodDelete, "/v1/folders/"+url.PathEscape(id), nil, &resp); err != nil {
		span.RecordError(err)
		return err
	}
	c.memo.Flush()
	return resp.err("folder delete")
}

// BulkMoveToFolder reassigns a set of records to a folder. An empty folderID
// moves them to uncategorized.
func (c *Client) BulkMoveToFolder(ctx context.Context, ids []string, folderID string) error {
	ctx, span := c.tracer.Start(ctx, "backend.bulk_move")
	defer span.End()

	body := map[string]interface{}{
		"ids":       ids,
		"folder_id": folderID,
	}
	var resp statusResponse
	if err := c.doRequest(ctx, http.MethodPost, "/v1/records/move", body, &resp); err != nil {
		span.RecordError(err)
		return err
	}
	c.memo.Flush()
	return resp.err("bulk move")
}
