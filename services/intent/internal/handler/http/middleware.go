package http

import (
	"mime"
	"net/http"

	apperrors "github.com/jiaorenyu/stripe-demo/pkg/errors"
	"github.com/jiaorenyu/stripe-demo/pkg/httputil"
)

// ContentTypeJSON rejects request bodies that declare a non-JSON Content-Type.
// A missing Content-Type is let through and left to the JSON decoder.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			if ct := r.Header.Get("Content-Type"); ct != "" {
				mediaType, _, err := mime.ParseMediaType(ct)
				if err != nil || mediaType != "application/json" {
					httputil.WriteError(w, r, apperrors.UnsupportedMediaType(), nil)
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
