package client

import (
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// newCachingTransport layers an HTTP cache over next. The backend marks listing
// and brief responses cacheable with Cache-Control; anything else passes through.
// An empty cacheDir keeps the cache in memory for the life of the process.
func newCachingTransport(cacheDir string, next http.RoundTripper) *httpcache.Transport {
	var cache httpcache.Cache
	if cacheDir == "" {
		cache = httpcache.NewMemoryCache()
	} else {
		// Disk cache persists across CLI invocations
		cache = diskcache.New(cacheDir)
	}

	transport := httpcache.NewTransport(cache)
	transport.Transport = next
	return transport
}

// IsCached reports whether resp was served from the HTTP cache.
func IsCached(resp *http.Response) bool {
	return resp.Header.Get(httpcache.XFromCache) == "1"
}
