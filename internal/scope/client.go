// Package scope implements the best-effort client for the backend question
// classification endpoint.  Every failure mode is returned as a tagged value;
// nothing in this package panics or lets a transport error escape as a raw
// exception to the routing layer.
package scope

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is a successful classification from the remote endpoint.
type Result struct {
	RecommendedPersona string  `json:"recommended_persona"`
	Confidence         float64 `json:"confidence"`
	Reasoning          string  `json:"reasoning"`
	Scope              string  `json:"scope"`
}

// FailureReason tags why a remote classification attempt was discarded.
type FailureReason string

const (
	FailureUnreachable FailureReason = "unreachable"
	FailureTimeout     FailureReason = "timeout"
	FailureBadStatus   FailureReason = "bad_status"
	FailureBadPayload  FailureReason = "bad_payload"
)

// Failure describes a discarded remote attempt.  It implements error so it
// can be logged, but the routing layer treats it as data, not as a fault.
type Failure struct {
	Reason FailureReason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %v", f.Reason, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// DefaultTimeout bounds a single remote attempt so the orchestrator's fast
// path budget holds even when the backend hangs.
const DefaultTimeout = 2 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 16

// Client posts questions to POST <base>/api/scope.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient constructs a scope client for the given base URL.  A
// non-positive timeout falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// resultWire uses pointer fields so a response missing any expected field is
// distinguishable from zero values and rejected as bad payload.
type resultWire struct {
	RecommendedPersona *string  `json:"recommended_persona"`
	Confidence         *float64 `json:"confidence"`
	Reasoning          *string  `json:"reasoning"`
	Scope              *string  `json:"scope"`
}

// Fetch issues one classification request.  Exactly one of the return values
// is non-nil.
func (c *Client) Fetch(ctx context.Context, question string) (*Result, *Failure) {
	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return nil, &Failure{Reason: FailureBadPayload, Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/scope", bytes.NewReader(body))
	if err != nil {
		return nil, &Failure{Reason: FailureUnreachable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		reason := FailureUnreachable
		if errors.Is(err, context.DeadlineExceeded) {
			reason = FailureTimeout
		}
		return nil, &Failure{Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Failure{Reason: FailureBadStatus, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var wire resultWire
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&wire); err != nil {
		return nil, &Failure{Reason: FailureBadPayload, Err: err}
	}
	if wire.RecommendedPersona == nil || wire.Confidence == nil || wire.Reasoning == nil || wire.Scope == nil {
		return nil, &Failure{Reason: FailureBadPayload, Err: errors.New("response missing expected fields")}
	}
	if *wire.RecommendedPersona == "" || *wire.Reasoning == "" {
		return nil, &Failure{Reason: FailureBadPayload, Err: errors.New("response has empty fields")}
	}
	return &Result{
		RecommendedPersona: *wire.RecommendedPersona,
		Confidence:         *wire.Confidence,
		Reasoning:          *wire.Reasoning,
		Scope:              *wire.Scope,
	}, nil
}
