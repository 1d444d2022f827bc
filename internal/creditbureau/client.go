// Package creditbureau fetches credit score history from an external bureau API.
package creditbureau

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout = 10 * time.Second
	dateLayout     = "2006-01-02"
	maxErrorBody   = 512
)

var (
	ErrUnauthorized = errors.New("credit bureau rejected credentials")
	ErrRateLimited  = errors.New("credit bureau rate limit exceeded")
)

// APIError is a non-success response the client could not map to a sentinel.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("credit bureau: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("credit bureau: HTTP %d: %s", e.StatusCode, e.Message)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	Logger zerolog.Logger
}

// Client talks to the bureau's REST API with retries on 5xx and 429.
type Client struct {
	baseURL string
	apiKey  string
	http    *retryablehttp.Client
	log     zerolog.Logger
}

// NewClient builds a Client. BaseURL is required.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("creditbureau: base URL is required")
	}
	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, errors.Wrap(err, "creditbureau: invalid base URL")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	rc.Logger = &retryLogger{log: opts.Logger}
	// Hand the final response back so its status can be mapped.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http:    rc,
		log:     opts.Logger,
	}, nil
}

type scoreResponse struct {
	Scores []struct {
		Score    int    `json:"score"`
		Date     string `json:"date"`
		Provider string `json:"provider"`
	} `json:"scores"`
}

// FetchHistory returns the user's credit score history as reported by the bureau.
func (c *Client) FetchHistory(ctx context.Context, userID string) ([]domain.CreditScoreRecord, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s/credit-scores", c.baseURL, url.PathEscape(userID))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "credit bureau request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	c.log.Debug().
		Str("user_id", userID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Int("size", len(body)).
		Msg("Credit bureau response")

	if resp.StatusCode != http.StatusOK {
		return nil, mapStatus(resp.StatusCode, body, userID)
	}

	var parsed scoreResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	out := make([]domain.CreditScoreRecord, 0, len(parsed.Scores))
	for _, s := range parsed.Scores {
		date, err := time.Parse(dateLayout, s.Date)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid score date %q", s.Date)
		}
		out = append(out, domain.CreditScoreRecord{Score: s.Score, Date: date, Provider: s.Provider})
	}
	return out, nil
}

func mapStatus(status int, body []byte, userID string) error {
	switch status {
	case http.StatusNotFound:
		return domain.NewNotFoundError("credit history", userID)
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}

	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if json.Unmarshal(body, &errResp) == nil {
		msg = errResp.Message
		if msg == "" {
			msg = errResp.Error
		}
	}
	if msg == "" && len(body) > 0 {
		msg = strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody] + "..."
		}
	}
	return &APIError{StatusCode: status, Message: msg}
}

// retryLogger adapts zerolog to retryablehttp.LeveledLogger.
type retryLogger struct {
	log zerolog.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}
