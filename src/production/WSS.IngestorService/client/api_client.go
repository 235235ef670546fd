package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	wssmodels "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models"
	api_models "gitlab.com/maplesense1/wss.sensor_server/src/production/WSS.Models/api"
)

// ErrCircuitOpen is returned while the API service is considered down
var ErrCircuitOpen = errors.New("circuit breaker is open")

// APIClient posts readings to the sensor API service
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *CircuitBreaker
	maxRetries int
	baseDelay  time.Duration
}

// Option customizes an APIClient
type Option func(*APIClient)

// WithRetry sets how many times a failed call is retried and the first
// backoff delay, which doubles on every retry.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *APIClient) {
		c.maxRetries = maxRetries
		c.baseDelay = baseDelay
	}
}

// WithCircuitBreaker replaces the default breaker
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(c *APIClient) {
		c.breaker = cb
	}
}

// NewAPIClient creates a client for the API service at baseURL
func NewAPIClient(baseURL string, opts ...Option) *APIClient {
	c := &APIClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    NewCircuitBreaker(5, 30*time.Second),
		maxRetries: 3,
		baseDelay:  time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateReadingRequest is the body of POST /sensor-data. System fields are
// never sent.
type CreateReadingRequest struct {
	WallID      string   `json:"wall_id"`
	DeviceCount int64    `json:"device_count"`
	Timestamp   int64    `json:"timestamp"`
	GatewayID   *string  `json:"gateway_id,omitempty"`
	RSSI        *float64 `json:"rssi,omitempty"`
	SNR         *float64 `json:"snr,omitempty"`
	ReceivedAt  *int64   `json:"received_at,omitempty"`
}

// RejectedError is returned when the API service refused a reading with a
// 4xx status. It is never retried.
type RejectedError struct {
	StatusCode int
	Message    string
	Details    []api_models.ErrorDetail
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("API rejected reading with status %d: %s", e.StatusCode, e.Message)
}

// call runs attempt until it succeeds, is rejected, the retries run out or
// the breaker opens. A rejection proves the service is up and counts as a
// success for the breaker.
func (c *APIClient) call(ctx context.Context, attempt func() error) error {
	var lastErr error
	delay := c.baseDelay

	for try := 0; try <= c.maxRetries; try++ {
		if try > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		}

		if !c.breaker.Allow() {
			return ErrCircuitOpen
		}

		err := attempt()
		var rejected *RejectedError
		switch {
		case err == nil:
			c.breaker.RecordSuccess()
			return nil
		case errors.As(err, &rejected):
			c.breaker.RecordSuccess()
			return err
		}

		lastErr = err
		c.breaker.RecordFailure()
	}

	return fmt.Errorf("operation failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// CreateReading posts a reading and returns the id it was stored under
func (c *APIClient) CreateReading(ctx context.Context, reading wssmodels.SensorReading) (string, error) {
	payload := CreateReadingRequest{
		WallID:      reading.WallID,
		DeviceCount: reading.DeviceCount,
		Timestamp:   reading.Timestamp,
		GatewayID:   reading.GatewayID,
		RSSI:        reading.RSSI,
		SNR:         reading.SNR,
		ReceivedAt:  reading.ReceivedAt,
	}

	var id string
	err := c.call(ctx, func() error {
		status, body, err := c.send(ctx, http.MethodPost, "/sensor-data", payload)
		if err != nil {
			return err
		}

		if status >= 400 && status < 500 {
			var rejection api_models.ValidationErrorResponse
			_ = json.Unmarshal(body, &rejection)
			return &RejectedError{StatusCode: status, Message: rejection.Error, Details: rejection.Details}
		}
		if status != http.StatusCreated {
			return fmt.Errorf("API returned status %d: %s", status, string(body))
		}

		var created api_models.CreateReadingResponse
		if err := json.Unmarshal(body, &created); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		if !created.Success {
			return fmt.Errorf("API reported failure: %s", created.Message)
		}
		id = created.ID
		return nil
	})

	return id, err
}

// send performs one request and returns the status and full body
func (c *APIClient) send(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "wss-ingestor-service")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// Health checks the API service reports itself healthy
func (c *APIClient) Health(ctx context.Context) error {
	status, _, err := c.send(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return fmt.Errorf("failed to check API health: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("API health check failed with status %d", status)
	}
	return nil
}

// GetCircuitBreakerStatus returns the current circuit breaker status for monitoring
func (c *APIClient) GetCircuitBreakerStatus() CircuitBreakerStatus {
	return c.breaker.Status()
}
