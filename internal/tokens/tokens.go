// Package tokens manages authentication of API requests.
package tokens

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/stitchkit/stitch/internal"
	"github.com/stitchkit/stitch/internal/api"
	"github.com/stitchkit/stitch/internal/authz"
	stitchhttp "github.com/stitchkit/stitch/internal/http"
	"github.com/stitchkit/stitch/internal/logr"
)

type (
	Service struct {
		logr.Logger

		siteToken string
	}

	Options struct {
		logr.Logger

		// SiteToken grants unlimited access; the access-control component
		// that differentiates per-tenant roles is an external collaborator
		// that plugs into this seam.
		SiteToken string
	}
)

func NewService(opts Options) *Service {
	return &Service{
		Logger:    opts.Logger,
		siteToken: opts.SiteToken,
	}
}

// Middleware authenticates requests to API routes, adding the authenticated
// subject to the request context. Requests bearing no valid token are
// rejected.
func (s *Service) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, stitchhttp.APIPrefixV1) {
				next.ServeHTTP(w, r)
				return
			}
			bearer := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(bearer, "Bearer ")
			if !found {
				api.Error(w, internal.ErrUnauthorized)
				return
			}
			subject, err := s.authenticate(token)
			if err != nil {
				s.V(2).Info("rejected request with invalid token", "path", r.URL.Path)
				api.Error(w, err)
				return
			}
			ctx := authz.AddSubjectToContext(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Service) authenticate(token string) (authz.Subject, error) {
	if s.siteToken != "" && subtle.ConstantTimeCompare([]byte(s.siteToken), []byte(token)) == 1 {
		return &authz.Superuser{Username: "site-admin"}, nil
	}
	return nil, internal.ErrUnauthorized
}
