package finance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

var defaultYahooHosts = []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"}

// YahooClient downloads daily closes from the Yahoo Finance chart API.
type YahooClient struct {
	httpClient *http.Client
	hosts      []string
	backoffs   []time.Duration
	log        zerolog.Logger
}

// YahooOption customizes a YahooClient.
type YahooOption func(*YahooClient)

// WithHosts replaces the API hosts (scheme included), tried in order.
func WithHosts(hosts ...string) YahooOption {
	return func(c *YahooClient) { c.hosts = hosts }
}

// WithBackoffs sets the pauses between retry rounds. No backoffs means a single round.
func WithBackoffs(backoffs ...time.Duration) YahooOption {
	return func(c *YahooClient) { c.backoffs = backoffs }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) YahooOption {
	return func(c *YahooClient) { c.httpClient = hc }
}

func NewYahooClient(log zerolog.Logger, opts ...YahooOption) *YahooClient {
	c := &YahooClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		hosts:      defaultYahooHosts,
		backoffs:   []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second},
		log:        log.With().Str("client", "yahoo").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCloses returns the daily closes of symbol for dates in [start, end).
func (c *YahooClient) FetchCloses(ctx context.Context, symbol string, start, end time.Time) (*PriceSeries, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("empty date range %s..%s", start.Format(DateLayout), end.Format(DateLayout))
	}
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div,splits")
	params.Set("includePrePost", "false")

	yc, err := c.fetchChart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}
	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.New("no data")
	}

	result := yc.Chart.Result[0]
	ts, cl := cleanCloses(result.Timestamp, result.Indicators.Quote[0].Close)
	if len(ts) == 0 {
		return nil, fmt.Errorf("no valid closes for %s", symbol)
	}

	loc := exchangeLocation(result.Meta.ExchangeTimezoneName)
	series := &PriceSeries{Symbol: symbol}
	for i, t := range ts {
		day := dateOf(time.Unix(t, 0), loc)
		// Yahoo sometimes repeats the live bar for the current day.
		if n := len(series.Dates); n > 0 && series.Dates[n-1].Equal(day) {
			series.Closes[n-1] = cl[i]
			continue
		}
		if day.Before(start) || !day.Before(end) {
			continue
		}
		series.Dates = append(series.Dates, day)
		series.Closes = append(series.Closes, cl[i])
	}
	if len(series.Dates) == 0 {
		return nil, fmt.Errorf("no valid closes for %s in range", symbol)
	}

	c.log.Info().
		Str("symbol", symbol).
		Str("start", series.Dates[0].Format(DateLayout)).
		Str("end", series.Dates[len(series.Dates)-1].Format(DateLayout)).
		Int("count", len(series.Dates)).
		Msg("fetched daily closes")
	return series, nil
}
