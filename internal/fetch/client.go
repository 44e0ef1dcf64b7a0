// Package fetch talks to the remote creature catalogue.
//
// Client implements both collaborator boundaries the controller depends on:
// FetchPage for the paginated list endpoint and FetchRecord for per-item
// detail. Every failure is an *Error classified by Kind.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/abelbrown/pokedex/internal/logging"
	"github.com/abelbrown/pokedex/internal/model"
)

// DefaultBaseURL is the public PokeAPI root.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// maxBody caps how much of a response body is read.
const maxBody = 4 << 20

// Page is one list page: the summaries in upstream order plus the
// upstream total-count hint.
//
// Returned is how many results upstream sent, including ones dropped at
// decode time, so pagination can advance past them.
type Page struct {
	Items    []model.Summary
	Total    int
	Returned int
}

// Consumed is the number of upstream positions this page covers. It never
// reports fewer than len(Items), so a zero Returned means "all kept".
func (p Page) Consumed() int {
	return max(p.Returned, len(p.Items))
}

// Config configures a Client. Zero fields take defaults.
type Config struct {
	BaseURL    string
	Timeout    time.Duration // per request; default 30s
	RateLimit  float64       // requests per second; <= 0 disables limiting
	Burst      int
	UserAgent  string
	HTTPClient *http.Client // overrides Timeout when set
	Logger     *log.Logger
}

// Client fetches pages and records over HTTP.
type Client struct {
	base    string
	ua      string
	http    *http.Client
	limiter *rate.Limiter
	log     *log.Logger
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "pokedex/" + logging.Version
	}
	return &Client{
		base:    base,
		ua:      ua,
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
		log:     logging.OrDiscard(cfg.Logger),
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.base }

// FetchPage requests limit summaries starting at offset.
func (c *Client) FetchPage(ctx context.Context, offset, limit int) (Page, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))
	u := c.base + "/pokemon?" + q.Encode()

	var resp pageResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return Page{}, err
	}
	page := Page{Items: resp.summaries(), Total: resp.Count, Returned: len(resp.Results)}
	if dropped := page.Returned - len(page.Items); dropped > 0 {
		c.log.Warn("page results without a name skipped", "offset", offset, "skipped", dropped)
	}
	c.log.Debug("page fetched", "offset", offset, "limit", limit, "items", len(page.Items), "total", page.Total)
	return page, nil
}

// FetchRecord retrieves the full record behind a summary's locator.
// A bare name is accepted as well as an absolute URL.
func (c *Client) FetchRecord(ctx context.Context, locator string) (model.Record, error) {
	u := c.Locator(locator)

	var resp recordResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return model.Record{}, err
	}
	if resp.Name == "" {
		return model.Record{}, &Error{Kind: KindDecode, URL: u, Msg: "record has no name"}
	}
	return resp.record(), nil
}

// Locator turns a name into the detail URL. Absolute URLs pass through.
func (c *Client) Locator(nameOrURL string) string {
	if strings.HasPrefix(nameOrURL, "http://") || strings.HasPrefix(nameOrURL, "https://") {
		return nameOrURL
	}
	return c.base + "/pokemon/" + url.PathEscape(strings.ToLower(strings.TrimSpace(nameOrURL)))
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return transportError(u, ctx.Err())
		}
		return &Error{Kind: KindUnknown, URL: u, Msg: "rate limiter", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &Error{Kind: KindUnknown, URL: u, Msg: "failed to create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.ua)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", "url", u, "err", err)
		return transportError(u, err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBody))

	// A status line was received, so a non-2xx keeps its code even when
	// the body was cut short.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("unexpected status", "url", u, "status", resp.StatusCode, "read_err", readErr)
		return &Error{Kind: KindServerStatus, Code: resp.StatusCode, URL: u, Msg: snippet(body), Err: readErr}
	}
	if readErr != nil {
		return &Error{Kind: KindConnectivity, URL: u, Msg: "failed to read response", Err: readErr}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &Error{Kind: KindDecode, URL: u, Err: fmt.Errorf("decode %T: %w", v, err)}
	}
	c.log.Debug("request ok", "url", u, "status", resp.StatusCode, "dur", time.Since(start))
	return nil
}

// snippet keeps a short, single-line prefix of an error body.
func snippet(body []byte) string {
	s := strings.Join(strings.Fields(string(body)), " ")
	if r := []rune(s); len(r) > 120 {
		s = string(r[:117]) + "..."
	}
	return s
}
