package fpl

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/ennish0079/fpl-dashboard/internal/platform/logging"
	"github.com/ennish0079/fpl-dashboard/internal/platform/resilience"
	"github.com/ennish0079/fpl-dashboard/internal/usecase"
)

const (
	defaultBaseURL     = "https://fantasy.premierleague.com/api"
	defaultRequestsSec = 20
	maxResponseBytes   = 16 << 20
)

var errFPLTransient = crerr.New("fpl transient failure")

type ClientConfig struct {
	HTTPClient         *http.Client
	BaseURL            string
	Timeout            time.Duration
	MaxRetries         int
	RequestsPerSec     float64
	InsecureSkipVerify bool
	Logger             *logging.Logger
	CircuitBreaker     resilience.CircuitBreakerConfig
}

// Client talks to the public FPL API with retries, a shared rate limit
// and a circuit breaker in front of every request.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	limiter        *rate.Limiter
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport
		if cfg.InsecureSkipVerify {
			// The FPL API sits behind TLS middleboxes in some deployments;
			// the upstream data is public either way.
			transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(transport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	requestsPerSec := cfg.RequestsPerSec
	if requestsPerSec <= 0 {
		requestsPerSec = defaultRequestsSec
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		limiter:        rate.NewLimiter(rate.Limit(requestsPerSec), 1),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchBootstrap retrieves the full bootstrap-static payload: every club
// and every element in the game.
func (c *Client) FetchBootstrap(ctx context.Context) (usecase.ExternalBootstrap, error) {
	var envelope bootstrapEnvelope
	if err := c.doJSON(ctx, "/bootstrap-static/", &envelope); err != nil {
		return usecase.ExternalBootstrap{}, fmt.Errorf("fetch bootstrap-static: %w", err)
	}

	teams := make([]usecase.ExternalTeam, 0, len(envelope.Teams))
	for _, item := range envelope.Teams {
		teams = append(teams, usecase.ExternalTeam{
			ID:   item.ID,
			Name: strings.TrimSpace(item.Name),
		})
	}

	positions := make([]usecase.ExternalPositionType, 0, len(envelope.ElementTypes))
	for _, item := range envelope.ElementTypes {
		positions = append(positions, usecase.ExternalPositionType{
			ID:        item.ID,
			ShortName: strings.ToUpper(strings.TrimSpace(item.SingularNameShort)),
		})
	}

	players := make([]usecase.ExternalPlayer, 0, len(envelope.Elements))
	for _, item := range envelope.Elements {
		players = append(players, usecase.ExternalPlayer{
			ID:                item.ID,
			WebName:           strings.TrimSpace(item.WebName),
			TeamID:            item.Team,
			ElementType:       item.ElementType,
			NowCost:           item.NowCost,
			TotalPoints:       item.TotalPoints,
			SelectedByPercent: strings.TrimSpace(item.SelectedByPercent),
		})
	}

	return usecase.ExternalBootstrap{Teams: teams, Positions: positions, Players: players}, nil
}

// FetchPlayerHistory retrieves per-gameweek rows from an element-summary
// payload. An unknown gameweek round is skipped rather than stored as zero.
func (c *Client) FetchPlayerHistory(ctx context.Context, playerID int) ([]usecase.ExternalHistoryEntry, error) {
	if playerID <= 0 {
		return nil, fmt.Errorf("%w: player id must be greater than zero", usecase.ErrInvalidInput)
	}

	var envelope elementSummaryEnvelope
	path := fmt.Sprintf("/element-summary/%d/", playerID)
	if err := c.doJSON(ctx, path, &envelope); err != nil {
		return nil, fmt.Errorf("fetch element-summary player_id=%d: %w", playerID, err)
	}

	out := make([]usecase.ExternalHistoryEntry, 0, len(envelope.History))
	for _, item := range envelope.History {
		if item.Round <= 0 {
			continue
		}
		out = append(out, usecase.ExternalHistoryEntry{
			Gameweek:    item.Round,
			TotalPoints: item.TotalPoints,
			Minutes:     item.Minutes,
		})
	}

	return out, nil
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fpl circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: fpl api is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	fullURL := c.baseURL + path
	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errFPLTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode fpl payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errFPLTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errFPLTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: fpl status=%d body=%s", errFPLTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("fpl status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("fpl request failed")
	}
	c.logger.WarnContext(ctx, "fpl request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500
}

func abbreviateBody(raw []byte) string {
	const maxLen = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > maxLen {
		return body[:maxLen] + "..."
	}
	return body
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
