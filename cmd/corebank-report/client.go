package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const defaultAddr = "http://localhost:8080"

// apiClient is a thin reader over the corebankd query API. Commands only
// ever GET, so there is no retry or auth machinery here.
type apiClient struct {
	baseURL string
	httpc   *http.Client
}

func newAPIClient(addr string) *apiClient {
	if addr == "" {
		addr = os.Getenv("COREBANK_ADDR")
	}
	if addr == "" {
		addr = defaultAddr
	}
	return &apiClient{
		baseURL: strings.TrimRight(addr, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

type apiError struct {
	Status  int
	Type    string
	Message string
	Fields  []fieldError
}

type fieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Type, e.Message)
	for _, f := range e.Fields {
		fmt.Fprintf(&b, "\n  %s: %s (%s)", f.Field, f.Message, f.Code)
	}
	return b.String()
}

// getJSON fetches path with the given query and decodes the data envelope
// into out. Non-2xx responses become *apiError carrying the server's
// type/message payload.
func (c *apiClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, body)
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func decodeAPIError(status int, body []byte) error {
	envelope := struct {
		Error struct {
			Type    string       `json:"type"`
			Message string       `json:"message"`
			Errors  []fieldError `json:"errors"`
		} `json:"error"`
	}{}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error.Type == "" {
		return &apiError{
			Status:  status,
			Type:    http.StatusText(status),
			Message: strings.TrimSpace(string(body)),
		}
	}
	return &apiError{
		Status:  status,
		Type:    envelope.Error.Type,
		Message: envelope.Error.Message,
		Fields:  envelope.Error.Errors,
	}
}
