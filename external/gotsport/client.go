package gotsport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/mercury-team/internal/domain/scrape"
	"github.com/riskibarqy/mercury-team/internal/domain/standing"
	"github.com/riskibarqy/mercury-team/internal/platform/logging"
	"github.com/riskibarqy/mercury-team/internal/platform/resilience"
	"github.com/riskibarqy/mercury-team/internal/usecase"
)

const (
	maxPageBytes     = 4 << 20
	defaultUserAgent = "Mozilla/5.0 (compatible; mercury-team-sync/1.0)"

	pageStandings = "standings"
	pageSchedule  = "schedule"
)

var errGotSportTransient = crerr.New("gotsport transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	ResultsURL     string
	ScheduleURL    string
	Timeout        time.Duration
	UserAgent      string
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches the GotSport results and schedule pages. A failed request is
// not retried; the next pass tries again.
type Client struct {
	httpClient  *http.Client
	resultsURL  string
	scheduleURL string
	userAgent   string
	logger      *logging.Logger
	breakers    *resilience.Breakers
}

var _ scrape.Source = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	breakerCfg := cfg.CircuitBreaker
	breakerCfg.IsFailure = func(err error) bool { return crerr.Is(err, errGotSportTransient) }
	breakerCfg.OnStateChange = func(page string, from, to resilience.CircuitState) {
		logger.Warn("gotsport circuit state changed", "page", page, "from", from, "to", to)
	}

	return &Client{
		httpClient:  httpClient,
		resultsURL:  strings.TrimSpace(cfg.ResultsURL),
		scheduleURL: strings.TrimSpace(cfg.ScheduleURL),
		userAgent:   userAgent,
		logger:      logger,
		breakers:    resilience.NewBreakers(breakerCfg),
	}
}

// FetchStandings downloads the results page and parses its league table.
func (c *Client) FetchStandings(ctx context.Context) ([]standing.Standing, error) {
	page, err := c.fetchPage(ctx, pageStandings, c.resultsURL)
	if err != nil {
		return nil, crerr.Wrap(err, "fetch results page")
	}

	out, err := ParseStandings(page)
	if err != nil {
		return nil, crerr.Wrap(err, "parse results page")
	}
	c.logger.DebugContext(ctx, "gotsport standings fetched", "teams", len(out))
	return out, nil
}

// FetchSchedule downloads the team schedule page and parses every match row.
func (c *Client) FetchSchedule(ctx context.Context) ([]scrape.Row, error) {
	page, err := c.fetchPage(ctx, pageSchedule, c.scheduleURL)
	if err != nil {
		return nil, crerr.Wrap(err, "fetch schedule page")
	}

	out, err := ParseSchedule(page)
	if err != nil {
		return nil, crerr.Wrap(err, "parse schedule page")
	}
	c.logger.DebugContext(ctx, "gotsport schedule fetched", "matches", len(out))
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, page, pageURL string) ([]byte, error) {
	if pageURL == "" {
		return nil, fmt.Errorf("%w: gotsport %s page url is not configured", usecase.ErrDependencyUnavailable, page)
	}

	var raw []byte
	err := c.breakers.Do(page, func() error {
		var reqErr error
		raw, reqErr = c.executeRequest(ctx, pageURL)
		return reqErr
	})
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "gotsport circuit breaker rejected request", "page", page, "state", c.breakers.State(page))
		return nil, fmt.Errorf("%w: gotsport %s page is temporarily unavailable", usecase.ErrDependencyUnavailable, page)
	}
	return raw, err
}

func (c *Client) executeRequest(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Encoding", "br")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, crerr.Mark(crerr.Wrap(err, "send request"), errGotSportTransient)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "br") {
		body = brotli.NewReader(resp.Body)
	}

	raw, err := io.ReadAll(io.LimitReader(body, maxPageBytes+1))
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "read response body"), errGotSportTransient)
	}
	if len(raw) > maxPageBytes {
		return nil, crerr.Wrapf(usecase.ErrSourceFetch, "gotsport page exceeds %d bytes url=%s", maxPageBytes, pageURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := crerr.Newf("gotsport status=%d url=%s", resp.StatusCode, pageURL)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, crerr.Mark(statusErr, errGotSportTransient)
		}
		return nil, statusErr
	}

	return raw, nil
}
