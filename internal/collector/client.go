// Package collector talks to the remote readings API and error-log endpoint.
package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"sensornode/internal/config"
	"sensornode/internal/logger"
	"sensornode/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AuthStatic = "static"
	AuthJWT    = "jwt"

	defaultTimeout  = 10 * time.Second
	defaultTokenTTL = 15 * time.Minute
)

// ReadingPayload is the JSON body posted for every reading.
type ReadingPayload struct {
	DeviceID    string    `json:"device_id"`
	ReadingID   string    `json:"reading_id"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Timestamp   time.Time `json:"timestamp"`
}

// Client implements both the reading transmitter and the fault log sink.
type Client struct {
	cfg      config.CollectorConfig
	deviceID string
	http     *http.Client
	log      *logger.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
	now      func() time.Time
}

func New(cfg config.CollectorConfig, deviceID string, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		cfg:      cfg,
		deviceID: deviceID,
		http:     &http.Client{Timeout: timeout},
		log:      logger.OrNop(log).Named("collector"),
		now:      time.Now,
	}
}

// Transmit posts one reading and returns the collector's status verbatim.
// Deciding whether the status means success is up to the caller.
func (c *Client) Transmit(ctx context.Context, r models.Reading) (int, error) {
	body, err := json.Marshal(ReadingPayload{
		DeviceID:    c.deviceID,
		ReadingID:   uuid.NewString(),
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Timestamp:   r.TakenAt.UTC(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal reading: %w", err)
	}
	return c.post(ctx, c.cfg.ReadingsURL, "application/json", body)
}

// PostLog sends a plain-text fault description to the log endpoint.
func (c *Client) PostLog(ctx context.Context, message string) (int, error) {
	return c.post(ctx, c.cfg.LogURL, "text/plain; charset=utf-8", []byte(message))
}

func (c *Client) post(ctx context.Context, url, contentType string, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	auth, err := c.authorization()
	if err != nil {
		return 0, err
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()
	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	c.log.Debugw("collector_response", "url", url, "status", resp.StatusCode)
	return resp.StatusCode, nil
}

func (c *Client) authorization() (string, error) {
	switch strings.ToLower(c.cfg.Auth.Mode) {
	case "", AuthStatic:
		if c.cfg.Auth.Token == "" {
			return "", nil
		}
		return "Bearer " + c.cfg.Auth.Token, nil
	case AuthJWT:
		tok, err := c.deviceToken()
		if err != nil {
			return "", err
		}
		return "Bearer " + tok, nil
	default:
		return "", fmt.Errorf("unknown collector auth mode %q", c.cfg.Auth.Mode)
	}
}

// deviceToken mints an HS256 token for the device and reuses it until it
// is within a tenth of its lifetime from expiring.
func (c *Client) deviceToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ttl := c.cfg.Auth.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	now := c.now()
	if c.token != "" && now.Add(ttl/10).Before(c.tokenExp) {
		return c.token, nil
	}

	exp := now.Add(ttl)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   c.deviceID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		ID:        uuid.NewString(),
	}).SignedString([]byte(c.cfg.Auth.Secret))
	if err != nil {
		return "", fmt.Errorf("sign device token: %w", err)
	}
	c.token, c.tokenExp = tok, exp
	return tok, nil
}
