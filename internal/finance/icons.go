package finance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultIconBaseURL hosts one PNG logo per B3 ticker code.
const DefaultIconBaseURL = "https://raw.githubusercontent.com/thefintz/icones-b3/main/icones"

// ErrNoIcon is returned when the icon host has no logo for a code.
var ErrNoIcon = errors.New("icon not found")

// IconFetcher downloads ticker logos.
type IconFetcher struct {
	baseURL    string
	httpClient *http.Client
	cache      *ImageCache
	log        zerolog.Logger
}

func NewIconFetcher(baseURL string, log zerolog.Logger) *IconFetcher {
	if baseURL == "" {
		baseURL = DefaultIconBaseURL
	}
	return &IconFetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      NewImageCache(iconCacheTTL),
		log:        log.With().Str("client", "icons").Logger(),
	}
}

// IconURL returns the address of the logo for code.
func (f *IconFetcher) IconURL(code string) string {
	return fmt.Sprintf("%s/%s.png", f.baseURL, url.PathEscape(strings.ToUpper(code)))
}

// Icon returns the PNG logo for code, or ErrNoIcon.
func (f *IconFetcher) Icon(ctx context.Context, code string) ([]byte, error) {
	key := strings.ToUpper(code)
	if img, ok := f.cache.Get(key); ok {
		return img, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.IconURL(code), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download icon for %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNoIcon, code)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("icon host returned %d for %s", resp.StatusCode, code)
	}
	img, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read icon for %s: %w", code, err)
	}
	if len(img) == 0 {
		return nil, fmt.Errorf("%w: %s (empty body)", ErrNoIcon, code)
	}

	f.cache.Set(key, img)
	f.log.Debug().Str("code", key).Int("bytes", len(img)).Msg("icon downloaded")
	return img, nil
}
