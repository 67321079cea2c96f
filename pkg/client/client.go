// Package client is a thin HTTP wrapper for the scribe coordinator API.
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
)

// Client talks to one coordinator instance.
type Client struct {
	URL        string
	HTTPClient *http.Client

	// Token is sent as a bearer credential on the audited speaker
	// endpoint. Worker endpoints use per-request auth codes instead.
	Token string
}

// New creates a new coordinator client.
func New(url string) *Client {
	return &Client{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WorkerAuth is the credential pair checked by the worker endpoints.
type WorkerAuth struct {
	UserID   string
	AuthCode string
}

// QueueEntry mirrors the server's queue record.
type QueueEntry struct {
	Added    time.Time  `json:"added"`
	Start    *time.Time `json:"start"`
	Instance *string    `json:"instance"`
}

// Poll returns the full queue snapshot for a category, claimed entries
// included.
func (c *Client) Poll(ctx context.Context, category string, auth WorkerAuth) (map[string]QueueEntry, error) {
	q := url.Values{}
	q.Set("category", category)
	q.Set("user_id", auth.UserID)
	q.Set("auth_code", auth.AuthCode)

	var queue map[string]QueueEntry
	if err := c.do(ctx, "GET", "/api/v1/queue?"+q.Encode(), nil, &queue); err != nil {
		return nil, err
	}
	return queue, nil
}

// Discover runs a catalog sweep on the server and returns the enqueued ids.
func (c *Client) Discover(ctx context.Context, limit int) ([]string, error) {
	var result struct {
		Enqueued []string `json:"enqueued"`
	}
	body := map[string]any{"limit": limit}
	if err := c.do(ctx, "POST", "/api/v1/queue/discover", body, &result); err != nil {
		return nil, err
	}
	return result.Enqueued, nil
}

// Claim assigns queue entries to a worker instance and returns the ids
// actually claimed. Requires admin-scoped credentials.
func (c *Client) Claim(ctx context.Context, category string, videoIDs []string, instanceID string, auth WorkerAuth) ([]string, error) {
	var result struct {
		Claimed []string `json:"claimed"`
	}
	body := map[string]any{
		"category":    category,
		"video_ids":   videoIDs,
		"instance_id": instanceID,
		"user_id":     auth.UserID,
		"auth_code":   auth.AuthCode,
	}
	if err := c.do(ctx, "POST", "/api/v1/queue/claim", body, &result); err != nil {
		return nil, err
	}
	return result.Claimed, nil
}

// Release removes finished entries from the queue. Requires admin-scoped
// credentials.
func (c *Client) Release(ctx context.Context, category string, videoIDs []string, auth WorkerAuth) error {
	body := map[string]any{
		"category":  category,
		"video_ids": videoIDs,
		"user_id":   auth.UserID,
		"auth_code": auth.AuthCode,
	}
	return c.do(ctx, "POST", "/api/v1/queue/release", body, nil)
}

// SpeakerResult is the response from a speaker annotation submit.
type SpeakerResult struct {
	SpeakerInfo   json.RawMessage `json:"speakerInfo"`
	ExistingTags  []string        `json:"existingTags"`
	ExistingNames []string        `json:"existingNames"`
}

// SubmitSpeakers posts one speaker annotation payload. Requires Token.
func (c *Client) SubmitSpeakers(ctx context.Context, category, videoID string, speakerInfo any) (*SpeakerResult, error) {
	var result SpeakerResult
	body := map[string]any{
		"category":    category,
		"videoId":     videoID,
		"speakerInfo": speakerInfo,
	}
	if err := c.do(ctx, "POST", "/api/v1/speakers", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SetMetadata writes a batch of metadata records for a category.
func (c *Client) SetMetadata(ctx context.Context, category string, metadata map[string]map[string]any) error {
	body := map[string]any{
		"category": category,
		"metadata": metadata,
	}
	return c.do(ctx, "POST", "/api/v1/metadata", body, nil)
}

// SweepStats mirrors the server's sweep summary.
type SweepStats struct {
	Inspected int64 `json:"inspected"`
	Copied    int64 `json:"copied"`
	Skipped   int64 `json:"skipped"`
	Written   int64 `json:"written"`
	Failed    int64 `json:"failed"`
}

// Migrate runs a path-migration sweep.
func (c *Client) Migrate(ctx context.Context, category string, limit int) (*SweepStats, error) {
	var stats SweepStats
	body := map[string]any{"category": category, "limit": limit}
	if err := c.do(ctx, "POST", "/api/v1/migrate", body, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// RegenerateMetadata runs an index-regeneration sweep.
func (c *Client) RegenerateMetadata(ctx context.Context, category string, limit int) (*SweepStats, error) {
	var stats SweepStats
	body := map[string]any{"category": category, "limit": limit}
	if err := c.do(ctx, "POST", "/api/v1/metadata/regenerate", body, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// AuditEntry is one audit record with its transaction id.
type AuditEntry struct {
	TxnID  string          `json:"txn_id"`
	Record json.RawMessage `json:"record"`
}

// ListAudit returns a category's audit records, newest first.
func (c *Client) ListAudit(ctx context.Context, category string, limit int) ([]AuditEntry, error) {
	q := url.Values{}
	q.Set("category", category)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var result struct {
		Entries []AuditEntry `json:"entries"`
	}
	if err := c.do(ctx, "GET", "/api/v1/audit?"+q.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return result.Entries, nil
}

// Healthz checks server liveness.
func (c *Client) Healthz(ctx context.Context) error {
	return c.do(ctx, "GET", "/healthz", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env struct {
		OK      bool            `json:"ok"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || !env.OK {
		return fmt.Errorf("server error (status %d): %s", resp.StatusCode, env.Message)
	}
	if result != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, result)
	}
	return nil
}
