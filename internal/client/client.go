// Package client drives the Card API and Upload Gateway from the client side.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/duynhne/card-service/internal/core/domain"
)

// APIError is a non-2xx response from the card service.
// It unwraps to the matching domain sentinel so callers can use errors.Is.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []string
	err        error
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%d %s: %s (%s)", e.StatusCode, http.StatusText(e.StatusCode), e.Message, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

func (e *APIError) Unwrap() error {
	return e.err
}

// Client talks to the card service over HTTP
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the service at baseURL (e.g. "http://localhost:8080")
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListCards fetches all cards, newest first
func (c *Client) ListCards(ctx context.Context) ([]*domain.BusinessCard, error) {
	var cards []*domain.BusinessCard
	if err := c.doJSON(ctx, http.MethodGet, "/cards", nil, &cards, domain.ErrStore); err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return cards, nil
}

// CreateCard submits a new card
func (c *Client) CreateCard(ctx context.Context, fields domain.CardFields) (*domain.BusinessCard, error) {
	var card domain.BusinessCard
	if err := c.doJSON(ctx, http.MethodPost, "/cards", fields, &card, domain.ErrStore); err != nil {
		return nil, fmt.Errorf("create card: %w", err)
	}
	return &card, nil
}

// UpdateCard overwrites the card identified by id
func (c *Client) UpdateCard(ctx context.Context, id string, fields domain.CardFields) (*domain.BusinessCard, error) {
	var card domain.BusinessCard
	path := "/cards/" + url.PathEscape(id)
	if err := c.doJSON(ctx, http.MethodPut, path, fields, &card, domain.ErrStore); err != nil {
		return nil, fmt.Errorf("update card %q: %w", id, err)
	}
	return &card, nil
}

// Upload sends one file to the Upload Gateway and returns its public URL
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("upload %q: %w", filename, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("upload %q: read file: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("upload %q: %w", filename, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return "", fmt.Errorf("upload %q: %w", filename, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp domain.UploadResponse
	if err := c.do(req, &resp, domain.ErrUpload); err != nil {
		return "", fmt.Errorf("upload %q: %w", filename, err)
	}
	return resp.URL, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, serverErr error) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, out, serverErr)
}

func (c *Client) do(req *http.Request, out any, serverErr error) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp, serverErr)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response, serverErr error) error {
	var payload struct {
		Error  string   `json:"error"`
		Fields []string `json:"fields"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &payload); err != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(data))
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: payload.Error, Fields: payload.Fields}
	switch {
	case resp.StatusCode == http.StatusBadRequest && payload.Error == "No file provided":
		apiErr.err = domain.ErrNoFile
	case resp.StatusCode == http.StatusBadRequest && payload.Error == "File too large":
		apiErr.err = domain.ErrFileTooLarge
	case resp.StatusCode == http.StatusBadRequest:
		apiErr.err = domain.ErrValidation
	case resp.StatusCode == http.StatusNotFound:
		apiErr.err = domain.ErrCardNotFound
	case payload.Error == "Blob storage not configured":
		apiErr.err = domain.ErrStorageNotConfigured
	default:
		apiErr.err = serverErr
	}
	return apiErr
}
