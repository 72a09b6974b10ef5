// Package nlu talks to the external intent/entity service. The service
// exposes a Rasa-style parse endpoint returning one intent with a
// confidence score plus a list of extracted entities.
package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	url    string
	client *http.Client
}

// Entity is one extracted span with the service's confidence in it.
type Entity struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

type parseRequest struct {
	Text string `json:"text"`
}

type parseResponse struct {
	Intent struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	} `json:"intent"`
	Entities []Entity `json:"entities"`
}

// NewClient points at the parse endpoint, e.g. http://localhost:5005/model/parse.
func NewClient(url string) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) parse(ctx context.Context, text string) (*parseResponse, error) {
	body, err := json.Marshal(parseRequest{Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nlu status %d: %s", resp.StatusCode, string(data))
	}

	var parsed parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode nlu response: %w", err)
	}
	return &parsed, nil
}

// Classify returns the intent name and its confidence for one utterance.
func (c *Client) Classify(ctx context.Context, text string) (string, float64, error) {
	parsed, err := c.parse(ctx, text)
	if err != nil {
		return "", 0, err
	}
	if parsed.Intent.Name == "" {
		return "", 0, fmt.Errorf("nlu returned no intent")
	}
	return parsed.Intent.Name, parsed.Intent.Confidence, nil
}

// Extract returns the raw entity list for one text; callers apply the
// confidence threshold and deduplicate.
func (c *Client) Extract(ctx context.Context, text string) ([]Entity, error) {
	parsed, err := c.parse(ctx, text)
	if err != nil {
		return nil, err
	}
	return parsed.Entities, nil
}

// Ping verifies the service is reachable. Startup treats a failure here as
// fatal: running without an intent classifier would leave every turn
// without read/write rules.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.parse(ctx, "ping")
	return err
}
