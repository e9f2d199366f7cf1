package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ljungman/calendard/internal/domain"
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPStore speaks to a remote event store over its REST surface:
// GET/POST /api/events, PUT/DELETE /api/events/{id}. The list endpoint
// wraps its result as {"events": [...]}.
type HTTPStore struct {
	baseURL string
	client  HTTPDoer
}

func NewHTTPStore(baseURL string, client HTTPDoer) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPStore{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

type eventList struct {
	Events []domain.Event `json:"events"`
}

func (s *HTTPStore) List(ctx context.Context) ([]domain.Event, error) {
	var out eventList
	if err := s.do(ctx, http.MethodGet, "/api/events", nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

func (s *HTTPStore) Create(ctx context.Context, ev domain.Event) (domain.Event, error) {
	var out domain.Event
	if err := s.do(ctx, http.MethodPost, "/api/events", ev, &out); err != nil {
		return domain.Event{}, err
	}
	return out, nil
}

func (s *HTTPStore) Update(ctx context.Context, id string, ev domain.Event) (domain.Event, error) {
	var out domain.Event
	if err := s.do(ctx, http.MethodPut, "/api/events/"+id, ev, &out); err != nil {
		return domain.Event{}, err
	}
	return out, nil
}

func (s *HTTPStore) Delete(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/api/events/"+id, nil, nil)
}

func (s *HTTPStore) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Buffer
	if in != nil {
		body = &bytes.Buffer{}
		if err := json.NewEncoder(body).Encode(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := newRequest(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func newRequest(ctx context.Context, method, url string, body *bytes.Buffer) (*http.Request, error) {
	if body == nil {
		return http.NewRequestWithContext(ctx, method, url, nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
