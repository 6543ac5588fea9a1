package api

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/harrylevesque/convoportal/internal/auth"
)

// newProxy forwards /api requests to the backend unchanged apart from the
// host. Cookies stay on this side; CORS headers come from the portal.
func newProxy(base string, log logrus.FieldLogger) (http.Handler, error) {
	target, err := url.Parse(base)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, errors.Errorf("invalid backend url %q", base)
	}
	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Header.Del("Cookie")
		},
		ModifyResponse: func(resp *http.Response) error {
			for k := range resp.Header {
				if strings.HasPrefix(k, "Access-Control-") {
					resp.Header.Del(k)
				}
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.WithFields(logrus.Fields{
				"request_id": RequestID(r.Context()),
				"path":       r.URL.Path,
			}).WithError(err).Warn("proxy failed")
			ErrorResponse(w, http.StatusBadGateway, "backend unavailable")
		},
	}
	return requireBearer(rp), nil
}

func requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.ExtractTokenFromHeader(r) == "" {
			ErrorResponse(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
