package middleware

import (
	"net/http"
)

// cacheWriter adds Cache-Control when the handler commits to a 2xx status.
type cacheWriter struct {
	http.ResponseWriter
	directive string
	decided   bool
}

func (w *cacheWriter) WriteHeader(code int) {
	if !w.decided {
		w.decided = true
		if code >= 200 && code < 300 {
			w.Header().Set("Cache-Control", w.directive)
		}
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheWriter) Write(b []byte) (int, error) {
	if !w.decided {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// CacheControl sets the Cache-Control header on successful GET and HEAD
// responses. Errors are never marked cacheable.
func CacheControl(directive string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(&cacheWriter{ResponseWriter: w, directive: directive}, r)
		})
	}
}
