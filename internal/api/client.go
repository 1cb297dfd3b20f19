package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client is a thin JSON gateway to the learning platform backend.
// Every failure is normalized to *APIError; callers never see
// transport-level error types.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client from cfg. cfg must be valid.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// do executes one request. body is marshaled as JSON when non-nil;
// the response body is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &APIError{
				Message: fmt.Sprintf("encode request body: %v", err),
				Code:    CodeRequestError,
				Err:     err,
			}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &APIError{
			Message: fmt.Sprintf("build request: %v", err),
			Code:    CodeRequestError,
			Err:     err,
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return normalizeTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return normalizeResponseError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{
			Message: fmt.Sprintf("decode response body: %v", err),
			Code:    CodeRequestError,
			Err:     err,
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

// normalizeTransportError maps no-response failures to NETWORK_ERROR
// or TIMEOUT_ERROR. Status is always 0: the server never answered.
func normalizeTransportError(err error) *APIError {
	code := CodeNetworkError
	message := "no response from server"

	if errors.Is(err, context.DeadlineExceeded) {
		code = CodeTimeoutError
		message = "request timed out"
	} else {
		var timeoutErr interface{ Timeout() bool }
		if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
			code = CodeTimeoutError
			message = "request timed out"
		}
	}

	return &APIError{Message: message, Code: code, Err: err}
}

// errorBody covers the backend's error envelope. FastAPI reports
// "detail" (string or structured list); other middlewares use
// "message"/"code".
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

// normalizeResponseError maps a non-2xx response to an APIError with
// status/code/message extracted from the JSON body.
func normalizeResponseError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Message: http.StatusText(resp.StatusCode),
		Status:  resp.StatusCode,
		Code:    CodeHTTPError,
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}

	switch {
	case len(body.Detail) > 0:
		var detail string
		if json.Unmarshal(body.Detail, &detail) == nil {
			apiErr.Message = detail
		} else {
			// Structured validation detail; keep it in Details.
			apiErr.Message = "request validation failed"
			var structured any
			if json.Unmarshal(body.Detail, &structured) == nil {
				apiErr.Details = map[string]any{"detail": structured}
			}
		}
	case body.Message != "":
		apiErr.Message = body.Message
	}
	if body.Code != "" {
		apiErr.Code = body.Code
	}
	return apiErr
}
