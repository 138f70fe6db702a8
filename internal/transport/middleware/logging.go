package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/helpdesk/pkg/logger"
)

const (
	maxLoggedBody = 64 << 10
	masked        = "[FILTERED]"
)

// credentialKeys are the JSON fields and headers of this API that carry
// secrets. Matching is exact and case-insensitive.
var credentialKeys = map[string]struct{}{
	"password":      {},
	"password_hash": {},
	"access_token":  {},
	"authorization": {},
	"cookie":        {},
	"set-cookie":    {},
}

func isCredential(name string) bool {
	_, ok := credentialKeys[strings.ToLower(name)]
	return ok
}

// LoggingMiddleware logs each request at debug and each response at a level
// derived from its status. It must run after RequestID so the trace-scoped
// logger is available.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lg := logger.From(r.Context())

		lg.DebugContext(r.Context(), "incoming request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"remote_addr", r.RemoteAddr,
			"headers", maskHeaders(r.Header),
			"body", maskBody(peekBody(r)),
		)

		rec := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		lg.Log(r.Context(), levelForStatus(rec.status), "response",
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"body", maskBody(rec.body.Bytes()),
		)
	})
}

// peekBody reads up to maxLoggedBody bytes and puts them back in front of
// whatever is left, so handlers still see the full body.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), r.Body))
	return head
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - cw.body.Len(); room > 0 {
		cw.body.Write(b[:min(room, len(b))])
	}
	return cw.ResponseWriter.Write(b)
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func maskHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if isCredential(name) {
			out[name] = masked
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// maskBody renders a JSON body with credential fields replaced. Anything that
// is not JSON is summarised by size only.
func maskBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Sprintf("[%d bytes, not JSON]", len(body))
	}
	out, err := json.Marshal(maskValue(doc))
	if err != nil {
		return fmt.Sprintf("[%d bytes]", len(body))
	}
	return string(out)
}

func maskValue(v interface{}) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		for key, child := range node {
			if isCredential(key) {
				node[key] = masked
			} else {
				node[key] = maskValue(child)
			}
		}
		return node
	case []interface{}:
		for i, child := range node {
			node[i] = maskValue(child)
		}
		return node
	default:
		return v
	}
}
