// Package client is a Go client for the REST API of the contact manager.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gitlab.com/dirk.krummacker/contact-manager/pkg/model"
)

// DefaultBaseURL is the address of a locally started service.
const DefaultBaseURL = "http://localhost:8080"

// ErrNotFound is matched by every *APIError with status 404.
var ErrNotFound = errors.New("not found")

// APIError is returned for every response with a status code of 400 or above.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client sends requests to one contact manager instance. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New returns a client for the service listening at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns contacts newest first. A limit of zero returns all contacts.
func (c *Client) List(ctx context.Context, limit, offset int) ([]model.Contact, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	path := "/api/contacts"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var contacts []model.Contact
	if err := c.do(ctx, http.MethodGet, path, nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// Get returns the contact with the given id.
func (c *Client) Get(ctx context.Context, id int64) (model.Contact, error) {
	var contact model.Contact
	err := c.do(ctx, http.MethodGet, contactPath(id), nil, &contact)
	return contact, err
}

// Create stores a new contact and returns it with the assigned id and timestamps.
func (c *Client) Create(ctx context.Context, contact model.Contact) (model.Contact, error) {
	var created model.Contact
	err := c.do(ctx, http.MethodPost, "/api/contacts", contact, &created)
	return created, err
}

// Update replaces the contact with the id of the given contact.
func (c *Client) Update(ctx context.Context, contact model.Contact) (model.Contact, error) {
	var result model.UpdateResult
	err := c.do(ctx, http.MethodPut, contactPath(contact.Id), contact, &result)
	return result.Contact, err
}

// Delete removes the contact with the given id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, contactPath(id), nil, nil)
}

// Ready returns nil if the service is up and its database is reachable.
func (c *Client) Ready(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health/ready", nil, nil)
}

// WaitUntilAvailable polls the readiness probe every interval until it succeeds or ctx is done.
// Each failed attempt is reported to progress, which may be nil.
func (c *Client) WaitUntilAvailable(ctx context.Context, interval time.Duration, progress func(waited time.Duration, err error)) error {
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		err := c.Ready(ctx)
		if err == nil {
			return nil
		}
		if progress != nil {
			progress(time.Since(start), err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("service not available: %w", errors.Join(ctx.Err(), err))
		case <-ticker.C:
		}
	}
}

func contactPath(id int64) string {
	return "/api/contacts/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: res.StatusCode}
		var msg model.Message
		if json.Unmarshal(data, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
