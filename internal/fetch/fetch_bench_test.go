package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/taleinat/htmldammit/internal/cache"
)

// Benchmark the client with and without the on-disk cache under different
// concurrency limits.
func BenchmarkClient_Get(b *testing.B) {
	page := "<html><head><meta charset=\"windows-1252\"></head><body>" + strings.Repeat("<p>caf\xe9</p>", 200) + "</body></html>"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	for _, conc := range []int{1, 4, 16} {
		for _, cached := range []bool{false, true} {
			name := "conc=" + strconv.Itoa(conc) + "/cached=" + strconv.FormatBool(cached)
			b.Run(name, func(b *testing.B) {
				c := &Client{MaxAttempts: 1, PerRequestTimeout: 5 * time.Second, MaxConcurrent: conc}
				if cached {
					c.Cache = &cache.HTTPCache{Dir: b.TempDir()}
				}
				b.ReportAllocs()
				b.SetParallelism(conc)
				b.ResetTimer()
				b.RunParallel(func(pb *testing.PB) {
					for pb.Next() {
						if _, err := c.Get(context.Background(), srv.URL); err != nil {
							b.Fatalf("get: %v", err)
						}
					}
				})
			})
		}
	}
}
