package fff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var (
	ErrInvalidRequestParams  = errors.New("invalid stats request parameters")
	ErrHttpFailure           = errors.New("stats request failed")
	ErrMalformedResponseBody = errors.New("stats response is not a json array")
)

const (
	playersPath = "/api/stats/players/"
	teamsPath   = "/api/stats/teams/"
)

func sessionCookie(sessionId string) *http.Cookie {
	return &http.Cookie{Name: sessionCookieName, Value: sessionId}
}

// RequestParams selects a gameweek range, a venue filter and a season.
// Every request is validated before it touches the network.
type RequestParams struct {
	MinGw  int    `validate:"required,min=1,max=38"`
	MaxGw  int    `validate:"required,min=1,max=38,gtefield=MinGw"`
	Venue  string `validate:"required,oneof=home/away home away"`
	Season string `validate:"required"`
}

var paramsValidator = validator.New()

func (p RequestParams) Validate() error {
	err := paramsValidator.Struct(p)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequestParams, err)
	}
	return nil
}

// RawStatRecord is one entry of the stats api response, a subject
// object (player or team, depending on the endpoint) next to a bag of
// numeric metrics. Unknown metric keys are preserved.
type RawStatRecord struct {
	Player map[string]any `json:"player"`
	Team   map[string]any `json:"team"`
	Stats  map[string]any `json:"stats"`
}

func decodeStatsBody(body []byte) ([]RawStatRecord, error) {
	if len(body) == 0 {
		return nil, ErrMalformedResponseBody
	}
	var records []RawStatRecord
	err := json.Unmarshal(body, &records)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponseBody, err)
	}
	return records, nil
}

// StatsClient issues authenticated stats requests. It is not safe for
// concurrent use; runs are strictly sequential and the counters are
// plain ints on purpose.
type StatsClient struct {
	http    *resty.Client
	options ClientOptions
	limiter *rate.Limiter

	requestsTotal  int
	requestsOk     int
	requestsFailed int
	playerRecords  int
	teamRecords    int
}

func NewStatsClient(options ClientOptions, token SessionToken) (*StatsClient, error) {
	options = options.withDefaults()

	client, _, err := newHttpClient(options)
	if err != nil {
		return nil, err
	}
	client.SetRetryCount(options.Retries)
	client.SetCookie(sessionCookie(token.Value))

	return &StatsClient{
		http:    client,
		options: options,
		limiter: rate.NewLimiter(rate.Every(options.Delay), 1),
	}, nil
}

func (c *StatsClient) fetch(ctx context.Context, path string, params RequestParams, extraQuery map[string]string) ([]RawStatRecord, error) {
	ctx, span := tracer.Start(ctx, "stats:fetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("path", path),
		attribute.Int("min_gw", params.MinGw),
		attribute.Int("max_gw", params.MaxGw),
		attribute.String("venue", params.Venue),
	)

	err := c.limiter.Wait(ctx)
	if err != nil {
		return nil, err
	}

	c.requestsTotal++

	req := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"season":    params.Season,
			"min_gw":    strconv.Itoa(params.MinGw),
			"max_gw":    strconv.Itoa(params.MaxGw),
			"home_away": params.Venue,
		})
	for key, value := range extraQuery {
		req.SetQueryParam(key, value)
	}

	res, err := req.Get(path)
	if err != nil {
		c.requestsFailed++
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("%w: %s", ErrHttpFailure, err)
	}
	if res.StatusCode() != 200 {
		c.requestsFailed++
		span.SetStatus(codes.Error, fmt.Sprintf("status %d", res.StatusCode()))
		return nil, fmt.Errorf("%w: status %d", ErrHttpFailure, res.StatusCode())
	}

	records, err := decodeStatsBody(res.Body())
	if err != nil {
		c.requestsFailed++
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed response body")
		return nil, err
	}

	c.requestsOk++
	return records, nil
}

// GetPlayers fetches raw player records for the given range. Any
// failure, validation included, reports an absent result with the
// cause logged; the season scan treats that as "skip and move on".
func (c *StatsClient) GetPlayers(ctx context.Context, params RequestParams) ([]RawStatRecord, bool) {
	params.Season = c.season(params.Season)
	err := params.Validate()
	if err != nil {
		slog.ErrorContext(ctx, "rejecting player stats request", "err", err)
		return nil, false
	}

	records, err := c.fetch(ctx, playersPath, params, nil)
	if err != nil {
		slog.ErrorContext(
			ctx, "player stats request failed",
			"min_gw", params.MinGw,
			"max_gw", params.MaxGw,
			"venue", params.Venue,
			"err", err,
		)
		return nil, false
	}

	c.playerRecords += len(records)
	return records, true
}

// GetTeams is GetPlayers against the teams endpoint; the api
// additionally wants an opposition filter which is pinned to ALL.
func (c *StatsClient) GetTeams(ctx context.Context, params RequestParams) ([]RawStatRecord, bool) {
	params.Season = c.season(params.Season)
	err := params.Validate()
	if err != nil {
		slog.ErrorContext(ctx, "rejecting team stats request", "err", err)
		return nil, false
	}

	records, err := c.fetch(ctx, teamsPath, params, map[string]string{
		"opposition": "ALL",
	})
	if err != nil {
		slog.ErrorContext(
			ctx, "team stats request failed",
			"min_gw", params.MinGw,
			"max_gw", params.MaxGw,
			"venue", params.Venue,
			"err", err,
		)
		return nil, false
	}

	c.teamRecords += len(records)
	return records, true
}

func (c *StatsClient) season(override string) string {
	if override != "" {
		return override
	}
	return c.options.Season
}

type Summary struct {
	TotalRequests int
	Succeeded     int
	Failed        int
	PlayerRecords int
	TeamRecords   int
	SuccessRate   float64
}

func (c *StatsClient) Summary() Summary {
	successRate := 0.0
	if c.requestsTotal > 0 {
		successRate = float64(c.requestsOk) / float64(c.requestsTotal) * 100
	}
	return Summary{
		TotalRequests: c.requestsTotal,
		Succeeded:     c.requestsOk,
		Failed:        c.requestsFailed,
		PlayerRecords: c.playerRecords,
		TeamRecords:   c.teamRecords,
		SuccessRate:   successRate,
	}
}
