package finance

import (
	"time"
)

// yahooChartResp mirrors Yahoo v8 chart response (trimmed to needed fields)
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				Currency             string `json:"currency"`
				GmtOffset            int    `json:"gmtoffset"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"` // null on halted days
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type imageCacheEntry struct {
	createdAt time.Time
	image     []byte
}

const iconCacheTTL = 6 * time.Hour
