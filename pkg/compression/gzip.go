package compression

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/tobilg/widget-studio/internal/api"
)

// GzipDecompressMiddleware decompresses gzip-encoded request bodies.
// The declared length no longer applies afterwards, so it is reset and
// any size limit further down the chain counts decompressed bytes.
func GzipDecompressMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			reader, err := gzip.NewReader(r.Body)
			if err != nil {
				api.WriteError(w, http.StatusBadRequest, "failed to decompress request body")
				return
			}
			defer reader.Close()
			r.Body = io.NopCloser(reader)
			r.ContentLength = -1
			r.Header.Del("Content-Encoding")
			r.Header.Del("Content-Length")
		}
		next.ServeHTTP(w, r)
	})
}
