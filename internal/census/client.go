package census

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/precinct-atlas/internal/common"
	"github.com/Veraticus/precinct-atlas/internal/model"
)

const (
	// DefaultBaseURL is the Census Data API root.
	DefaultBaseURL = "https://api.census.gov/data"
	// DefaultDataset is the ACS 5-year detailed tables dataset.
	DefaultDataset = "acs/acs5"
	// DefaultYear is the survey vintage.
	DefaultYear = 2023
	// NewYorkStateFIPS is the state FIPS code for New York.
	NewYorkStateFIPS = "36"
)

// Config configures a Client.
type Config struct {
	APIKey     string
	BaseURL    string
	Dataset    string
	StateFIPS  string
	Counties   []CountyFIPS
	Dictionary Dictionary
	Year       int
	Timeout    time.Duration
	// CacheTTL keeps successful county responses in memory. Zero disables
	// caching.
	CacheTTL time.Duration
}

// DefaultConfig returns a configuration for the five New York City counties.
// The API key must still be supplied.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		Dataset:    DefaultDataset,
		StateFIPS:  NewYorkStateFIPS,
		Counties:   NYCCounties(),
		Dictionary: ACS5Dictionary(),
		Year:       DefaultYear,
		Timeout:    30 * time.Second,
		CacheTTL:   time.Hour,
	}
}

// Validate checks the configuration before any request is made.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return common.NewUserError(
			"set CENSUS_API_KEY or census.api_key; keys are issued at https://api.census.gov/data/key_signup.html",
			fmt.Errorf("%w: census api key", common.ErrMissingConfig),
		)
	}
	if c.BaseURL == "" || c.Dataset == "" || c.StateFIPS == "" || c.Year <= 0 {
		return fmt.Errorf("%w: census base url, dataset, state and year are required", common.ErrInvalidConfig)
	}
	if len(c.Counties) == 0 {
		return fmt.Errorf("%w: no counties configured", common.ErrInvalidConfig)
	}
	return c.Dictionary.Validate()
}

// Observer is notified after each county fetch completes. It may be called
// concurrently.
type Observer func(county string, rows int, err error)

// Client fetches tract-level survey rows from the Census Data API.
type Client struct {
	httpClient *http.Client
	cache      *cache.Cache
	logger     *slog.Logger
	observer   Observer
	cfg        Config
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithObserver registers a per-county completion callback.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// NewClient creates a client. A missing API key is a configuration error.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     slog.Default(),
	}
	if cfg.CacheTTL > 0 {
		// No janitor; expired entries are ignored on read.
		c.cache = cache.New(cfg.CacheTTL, 0)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchResult holds the rows of every county that answered.
type FetchResult struct {
	Rows    []model.SurveyRow
	Fetched []string
	Missing []string
}

// FetchAll fetches every configured county in parallel. A county that fails
// contributes no rows and is listed in Missing; the call only fails when no
// county succeeded.
func (c *Client) FetchAll(ctx context.Context) (*FetchResult, error) {
	perCounty := make([][]model.SurveyRow, len(c.cfg.Counties))
	failures := make([]error, len(c.cfg.Counties))

	var mu sync.Mutex
	var g errgroup.Group
	for i, county := range c.cfg.Counties {
		g.Go(func() error {
			rows, err := c.FetchCounty(ctx, county)
			if err == nil && len(rows) == 0 {
				err = fmt.Errorf("%w: county %s returned no rows", common.ErrDataUnavailable, county.Name)
			}

			mu.Lock()
			perCounty[i] = rows
			failures[i] = err
			mu.Unlock()

			if err != nil {
				c.logger.Warn("Census county fetch failed",
					"county", county.Name,
					"fips", county.FIPS,
					"error", err)
			}
			if c.observer != nil {
				c.observer(county.Name, len(rows), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := &FetchResult{}
	for i, county := range c.cfg.Counties {
		if failures[i] != nil {
			result.Missing = append(result.Missing, county.Name)
			continue
		}
		result.Fetched = append(result.Fetched, county.Name)
		result.Rows = append(result.Rows, perCounty[i]...)
	}

	if len(result.Fetched) == 0 {
		return nil, fmt.Errorf("%w: no county returned census data: %w",
			common.ErrDataUnavailable, errors.Join(failures...))
	}

	c.logger.Info("Fetched census data",
		"counties", len(result.Fetched),
		"missing", len(result.Missing),
		"rows", len(result.Rows))
	return result, nil
}

// FetchCounty fetches the tract rows of one county. A header-only response
// yields no rows and no error.
func (c *Client) FetchCounty(ctx context.Context, county CountyFIPS) ([]model.SurveyRow, error) {
	key := c.cacheKey(county)
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			if rows, ok := cached.([]model.SurveyRow); ok {
				c.logger.Debug("Census cache hit", "county", county.Name)
				return rows, nil
			}
		}
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(county), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create census request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: census request for %s: %w", common.ErrTransport, county.Name, redact(err, c.cfg.APIKey))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("Failed to close census response body", "error", closeErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading census response for %s: %w", common.ErrTransport, county.Name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: census api returned %d for %s: %s",
			common.ErrTransport, resp.StatusCode, county.Name, truncate(string(body), 200))
	}

	rows, err := decodeTable(body, county.Name)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && len(rows) > 0 {
		c.cache.Set(key, rows, cache.DefaultExpiration)
	}
	return rows, nil
}

func (c *Client) cacheKey(county CountyFIPS) string {
	return fmt.Sprintf("%d/%s/%s/%s", c.cfg.Year, c.cfg.Dataset, c.cfg.StateFIPS, county.FIPS)
}

func (c *Client) requestURL(county CountyFIPS) string {
	base := fmt.Sprintf("%s/%d/%s", strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Year, c.cfg.Dataset)
	q := url.Values{}
	q.Set("get", strings.Join(append(c.cfg.Dictionary.Codes(), "NAME"), ","))
	q.Set("for", "tract:*")
	q.Add("in", "state:"+c.cfg.StateFIPS)
	q.Add("in", "county:"+county.FIPS)
	q.Set("key", c.cfg.APIKey)
	return base + "?" + q.Encode()
}

// decodeTable decodes the API's array-of-arrays body: a header row followed
// by one row per tract.
func decodeTable(body []byte, county string) ([]model.SurveyRow, error) {
	var table [][]any
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, fmt.Errorf("%w: decoding census response for %s: %w", common.ErrTransport, county, err)
	}
	if len(table) < 2 {
		return nil, nil
	}

	header := make([]string, len(table[0]))
	index := make(map[string]int, len(header))
	for i, h := range table[0] {
		header[i] = cellString(h)
		index[header[i]] = i
	}
	for _, required := range []string{"state", "county", "tract"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: census response for %s has no %q column", common.ErrTransport, county, required)
		}
	}

	rows := make([]model.SurveyRow, 0, len(table)-1)
	for _, raw := range table[1:] {
		row := model.SurveyRow{
			Values: make(map[string]string, len(header)),
			County: county,
		}
		for i, cell := range raw {
			if i >= len(header) {
				break
			}
			value := cellString(cell)
			switch header[i] {
			case "state":
				row.StateFIPS = value
			case "county":
				row.CountyFIPS = value
			case "tract":
				row.Tract = value
			case "NAME":
				row.Name = value
			default:
				row.Values[header[i]] = value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// redact keeps the API key out of url.Error messages.
func redact(err error, key string) error {
	if key == "" {
		return err
	}
	msg := err.Error()
	if !strings.Contains(msg, key) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, key, "REDACTED"))
}
