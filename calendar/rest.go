package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RESTService talks to the external calendar provider over its JSON API,
// authenticating with the token held by the TokenStore.
type RESTService struct {
	baseURL string
	tokens  *TokenStore
	client  *http.Client
}

func NewRESTService(baseURL string, tokens *TokenStore) *RESTService {
	return &RESTService{
		baseURL: baseURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *RESTService) CreateEvent(ctx context.Context, input EventInput) (string, error) {
	var created Event
	if err := s.do(ctx, http.MethodPost, "/events", input, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", fmt.Errorf("calendar API returned no event ID")
	}
	return created.ID, nil
}

func (s *RESTService) UpdateEvent(ctx context.Context, eventID string, input EventInput) error {
	return s.do(ctx, http.MethodPut, "/events/"+eventID, input, nil)
}

func (s *RESTService) DeleteEvent(ctx context.Context, eventID string) error {
	return s.do(ctx, http.MethodDelete, "/events/"+eventID, nil, nil)
}

func (s *RESTService) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	var event Event
	if err := s.do(ctx, http.MethodGet, "/events/"+eventID, nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *RESTService) do(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("calendar not authorized: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calendar API %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("calendar API %s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("calendar API %s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}
