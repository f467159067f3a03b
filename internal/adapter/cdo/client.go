package cdo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/kevinhicks7/noaa-api/internal/config"
	"github.com/kevinhicks7/noaa-api/internal/domain"
	"github.com/kevinhicks7/noaa-api/internal/observability"
)

// TokenVar names the environment variable that holds the CDO token.
const TokenVar = "NOAA_API"

// Client queries the NOAA Climate Data Online v2 API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a CDO client. A zero CDOTimeout disables request timeouts.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: cfg.NOAAToken,
		httpClient: &http.Client{
			Timeout: cfg.CDOTimeout,
		},
		baseURL: cfg.CDOBaseURL,
		limiter: rate.NewLimiter(rate.Limit(cfg.CDORateLimit), 1),
		metrics: metrics,
		logger:  logger,
	}
}

// FetchAll pages through a CDO listing endpoint with limit=pageSize and
// offsets 0, pageSize, 2*pageSize, ... until a page comes back without
// results, returning the concatenated raw records in server order.
func (c *Client) FetchAll(ctx context.Context, endpoint string, params url.Values, pageSize int) ([]json.RawMessage, error) {
	if c.token == "" {
		return nil, &domain.MissingCredentialError{Name: TokenVar}
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}

	var all []json.RawMessage
	for offset := 0; ; offset += pageSize {
		q := url.Values{}
		for k, vs := range params {
			q[k] = append([]string(nil), vs...)
		}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(offset))

		p, err := c.fetchPage(ctx, endpoint, q)
		if err != nil {
			return nil, err
		}
		if offset == 0 && p.Metadata != nil {
			c.logger.Debug("cdo listing size", "endpoint", endpoint, "count", p.Metadata.ResultSet.Count)
		}
		if len(p.Results) == 0 {
			break
		}
		all = append(all, p.Results...)
		c.logger.Debug("cdo page fetched", "endpoint", endpoint, "offset", offset, "count", len(p.Results))
	}

	c.metrics.CDORecordsFetched.WithLabelValues(endpoint).Add(float64(len(all)))
	return all, nil
}

// Locations lists every location in a category (e.g. "CITY").
func (c *Client) Locations(ctx context.Context, category string, pageSize int) ([]domain.Station, error) {
	params := url.Values{"locationcategoryid": {category}}
	return fetchAllAs[domain.Station](ctx, c, "locations", params, pageSize)
}

// Stations lists the observing stations inside a location.
func (c *Client) Stations(ctx context.Context, locationID string, pageSize int) ([]domain.Station, error) {
	params := url.Values{"locationid": {locationID}}
	return fetchAllAs[domain.Station](ctx, c, "stations", params, pageSize)
}

// Observations fetches dataset values for one location and inclusive date range.
func (c *Client) Observations(ctx context.Context, q domain.ObservationQuery, pageSize int) ([]domain.Observation, error) {
	return fetchAllAs[domain.Observation](ctx, c, "data", observationParams(q), pageSize)
}

func observationParams(q domain.ObservationQuery) url.Values {
	params := url.Values{}
	params.Set("datasetid", q.DatasetID)
	params.Set("locationid", q.LocationID)
	params.Set("startdate", domain.FormatDate(q.StartDate))
	params.Set("enddate", domain.FormatDate(q.EndDate))
	if q.Units != "" {
		params.Set("units", q.Units)
	}
	for _, dt := range q.DataTypes {
		params.Add("datatypeid", dt)
	}
	return params
}

func fetchAllAs[T any](ctx context.Context, c *Client, endpoint string, params url.Values, pageSize int) ([]T, error) {
	raw, err := c.FetchAll(ctx, endpoint, params, pageSize)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raw))
	for i, r := range raw {
		var v T
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, fmt.Errorf("decode %s record %d: %w", endpoint, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Client) fetchPage(ctx context.Context, endpoint string, params url.Values) (page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return page{}, fmt.Errorf("rate limit wait: %w", err)
	}

	fullURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("token", c.token)

	start := time.Now()
	p, err := c.do(req, endpoint)
	c.metrics.CDORequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.CDORequests.WithLabelValues(endpoint, "error").Inc()
		return page{}, err
	}
	c.metrics.CDORequests.WithLabelValues(endpoint, "success").Inc()
	return p, nil
}

func (c *Client) do(req *http.Request, endpoint string) (page, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("cdo %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return page{}, fmt.Errorf("cdo API error: status %d: %s", resp.StatusCode, body)
	}

	var p page
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return page{}, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return p, nil
}

// CDO API response types.

// page is the envelope of every CDO listing. An empty listing is returned as
// "{}", so Results is nil both when the key is absent and when it is empty.
type page struct {
	Metadata *metadata         `json:"metadata,omitempty"`
	Results  []json.RawMessage `json:"results,omitempty"`
}

type metadata struct {
	ResultSet struct {
		Offset int `json:"offset"`
		Count  int `json:"count"`
		Limit  int `json:"limit"`
	} `json:"resultset"`
}
