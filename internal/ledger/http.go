package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPLedger talks JSON to a ledger gateway service that fronts the
// actual chain. Transaction signing stays on the gateway side.
type HTTPLedger struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPLedger(baseURL, token string) *HTTPLedger {
	return &HTTPLedger{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{},
	}
}

func (l *HTTPLedger) Count(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := l.do(ctx, http.MethodGet, "/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (l *HTTPLedger) RecordAt(ctx context.Context, index int) (Record, error) {
	var rec struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		ContentRef  string `json:"contentRef"`
		Holder      string `json:"holder"`
		Timestamp   int64  `json:"timestamp"` // unix seconds
	}
	if err := l.do(ctx, http.MethodGet, fmt.Sprintf("/records/%d", index), nil, &rec); err != nil {
		return Record{}, err
	}
	return Record{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		ContentRef:  rec.ContentRef,
		Holder:      rec.Holder,
		Timestamp:   time.Unix(rec.Timestamp, 0).UTC(),
	}, nil
}

func (l *HTTPLedger) Submit(ctx context.Context, name, description, contentRef string) (string, error) {
	body := map[string]string{
		"name":        name,
		"description": description,
		"contentRef":  contentRef,
	}
	var out struct {
		ConfirmationRef string `json:"confirmationRef"`
	}
	if err := l.do(ctx, http.MethodPost, "/submit", body, &out); err != nil {
		return "", err
	}
	return out.ConfirmationRef, nil
}

func (l *HTTPLedger) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, l.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if l.Token != "" {
		req.Header.Set("Authorization", "Bearer "+l.Token)
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ledger gateway %s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// HTTPContentStore uploads evidence bytes to a pinning service and
// returns the content reference it assigns.
type HTTPContentStore struct {
	UploadURL string
	Token     string
	Client    *http.Client
}

func NewHTTPContentStore(uploadURL, token string) *HTTPContentStore {
	return &HTTPContentStore{
		UploadURL: uploadURL,
		Token:     token,
		Client:    &http.Client{},
	}
}

func (s *HTTPContentStore) Put(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.UploadURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("content upload: status %d", resp.StatusCode)
	}

	var out struct {
		ContentRef string `json:"contentRef"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.ContentRef, nil
}
