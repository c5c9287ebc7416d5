// Package dispatch submits validated payloads to the fleet management
// API with retries and a circuit breaker.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mklemmingen/ComBadge-sub001/internal/catalog"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/config"
	httpclient "github.com/mklemmingen/ComBadge-sub001/internal/common/http"
	"github.com/mklemmingen/ComBadge-sub001/internal/common/logger"
)

// Response is the outcome of one submission.
type Response struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body,omitempty"`
	Attempts   int             `json:"attempts"`
	Endpoint   string          `json:"endpoint"`
}

// Dispatcher posts payloads to the endpoint derived from the template.
type Dispatcher struct {
	cfg     config.APIConfig
	client  *httpclient.Client
	breaker *circuitBreaker
	log     logger.Logger
}

func New(cfg config.APIConfig, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		cfg:     cfg,
		client:  httpclient.NewClient(cfg.BaseURL, time.Duration(cfg.TimeoutSeconds)*time.Second),
		breaker: newCircuitBreaker(cfg.BreakerThreshold, time.Duration(cfg.BreakerCooldownSeconds)*time.Second),
		log:     log.With(map[string]interface{}{"component": "dispatch"}),
	}
}

// Dispatch posts the payload, retrying transient failures with
// exponential backoff. Client errors (4xx) are never retried.
func (d *Dispatcher) Dispatch(ctx context.Context, tpl *catalog.Template, payload map[string]interface{}) (*Response, error) {
	if !d.breaker.Allow() {
		return nil, fmt.Errorf("fleet API circuit breaker is open")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("payload encoding failed: %w", err)
	}

	endpoint := d.endpointFor(tpl)
	delay := time.Duration(d.cfg.RetryDelayMS) * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= d.cfg.MaxRetries; attempt++ {
		resp, err := d.post(ctx, endpoint, body)
		if err == nil && resp.StatusCode < 500 {
			if resp.StatusCode >= 400 {
				d.breaker.RecordSuccess()
				resp.Attempts = attempt
				return resp, fmt.Errorf("fleet API rejected the request: status %d", resp.StatusCode)
			}
			d.breaker.RecordSuccess()
			resp.Attempts = attempt
			d.log.Info("payload dispatched", map[string]interface{}{
				"endpoint": endpoint,
				"status":   resp.StatusCode,
				"attempts": attempt,
			})
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("fleet API returned status %d", resp.StatusCode)
		}

		if attempt < d.cfg.MaxRetries {
			d.log.Warn("dispatch attempt failed, retrying", map[string]interface{}{
				"endpoint": endpoint,
				"attempt":  attempt,
				"error":    lastErr.Error(),
			})
			select {
			case <-ctx.Done():
				d.breaker.RecordFailure()
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	d.breaker.RecordFailure()
	return nil, fmt.Errorf("dispatch failed after %d attempts: %w", d.cfg.MaxRetries, lastErr)
}

func (d *Dispatcher) post(ctx context.Context, endpoint string, body []byte) (*Response, error) {
	resp, err := d.client.PostJSON(ctx, endpoint, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if !json.Valid(respBody) {
		respBody, _ = json.Marshal(string(respBody))
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Endpoint:   endpoint,
	}, nil
}

// endpointFor maps a template onto its API path.
func (d *Dispatcher) endpointFor(tpl *catalog.Template) string {
	return fmt.Sprintf("/api/%s/%s", tpl.Metadata.Category, tpl.Metadata.Name)
}
