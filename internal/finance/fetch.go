package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

// fetchChart queries the v8 chart endpoint, rotating hosts and backing off between rounds.
func (c *YahooClient) fetchChart(ctx context.Context, symbol string, params url.Values) (*yahooChartResp, error) {
	var lastErr error
	for attempt := 0; attempt < len(c.backoffs)+1; attempt++ {
		for _, host := range c.hosts {
			yc, err := c.fetchChartOnce(ctx, host, symbol, params)
			if err == nil {
				return yc, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var notFound *symbolNotFoundError
			if errors.As(err, &notFound) {
				return nil, err
			}
			lastErr = err
			c.log.Debug().Err(err).Str("host", host).Str("symbol", symbol).Int("attempt", attempt).Msg("yahoo request failed")
		}
		if attempt < len(c.backoffs) {
			select {
			case <-time.After(c.backoffs[attempt]):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, lastErr
}

type symbolNotFoundError struct {
	symbol string
	desc   string
}

func (e *symbolNotFoundError) Error() string {
	return fmt.Sprintf("yahoo has no data for %s: %s", e.symbol, e.desc)
}

func (c *YahooClient) fetchChartOnce(ctx context.Context, host, symbol string, params url.Values) (*yahooChartResp, error) {
	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", strings.TrimRight(host, "/"), url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/history", strings.ToUpper(symbol)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("failed to read yahoo response: %w", readErr)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return nil, fmt.Errorf("yahoo %s returned 429: Edge: Too Many Requests", host)
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return nil, fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}

	var yc yahooChartResp
	if err := json.Unmarshal(body, &yc); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("yahoo %s returned %d: %s", host, resp.StatusCode, preview(body))
		}
		return nil, fmt.Errorf("failed to parse yahoo json: %v; body: %s", err, preview(body))
	}
	if yc.Chart.Error != nil {
		// A structured error means the host answered; other hosts will say the same.
		if resp.StatusCode == http.StatusNotFound || yc.Chart.Error.Code == "Not Found" {
			return nil, &symbolNotFoundError{symbol: symbol, desc: yc.Chart.Error.Description}
		}
		return nil, fmt.Errorf("yahoo api error for %s: %s - %s", symbol, yc.Chart.Error.Code, yc.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s returned %d: %s", host, resp.StatusCode, preview(body))
	}
	return &yc, nil
}

func preview(body []byte) string {
	p := string(body)
	if len(p) > 120 {
		p = p[:120]
	}
	return p
}
