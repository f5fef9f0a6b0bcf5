package finance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIconFetcher(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/icones/PETR4.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngMagic)
	}))
	defer srv.Close()

	f := NewIconFetcher(srv.URL+"/icones/", testLogger)
	assert.Equal(t, srv.URL+"/icones/PETR4.png", f.IconURL("petr4"))

	img, err := f.Icon(context.Background(), "petr4")
	require.NoError(t, err)
	assert.Equal(t, pngMagic, img)

	// second call is served from the cache
	_, err = f.Icon(context.Background(), "PETR4")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	_, err = f.Icon(context.Background(), "XXXX3")
	assert.ErrorIs(t, err, ErrNoIcon)
}

func TestImageCacheExpires(t *testing.T) {
	c := NewImageCache(time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", []byte{1, 2})
	img, ok := c.Get("k")
	require.True(t, ok)
	img[0] = 9
	again, _ := c.Get("k")
	assert.Equal(t, []byte{1, 2}, again, "callers get a copy")

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
}
