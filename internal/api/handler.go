package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/harrylevesque/convoportal/internal/auth"
	"github.com/harrylevesque/convoportal/internal/backend"
	"github.com/harrylevesque/convoportal/internal/config"
	"github.com/harrylevesque/convoportal/internal/crypto"
	"github.com/harrylevesque/convoportal/internal/models"
	"github.com/harrylevesque/convoportal/internal/utils"
)

// Backend is the part of the ConvoAI backend the pages use.
type Backend interface {
	CurrentPlan(ctx context.Context, bearer string) (models.Plan, error)
	SubscriptionDetails(ctx context.Context, bearer, id string) (models.SubscriptionDetails, error)
	Subscribe(ctx context.Context, bearer, planID string) (models.SubscribeResult, error)
	ChangePlan(ctx context.Context, bearer string, req models.ChangePlanRequest) (models.ChangePlanResult, error)
	Unsubscribe(ctx context.Context, bearer string, req models.UnsubscribeRequest) error
}

var _ Backend = (*backend.Client)(nil)

// Deps is everything the router needs.
type Deps struct {
	Config   *config.Config
	Logger   logrus.FieldLogger
	Backend  Backend
	Sessions *auth.Resolver
	States   *StateCodec
}

// Handler serves the portal pages.
type Handler struct {
	cfg      *config.Config
	log      logrus.FieldLogger
	backend  Backend
	sessions *auth.Resolver
	states   *StateCodec
	views    *renderer
}

func newHandler(d Deps) (*Handler, error) {
	views, err := newRenderer(d.Config.Links)
	if err != nil {
		return nil, err
	}
	return &Handler{
		cfg:      d.Config,
		log:      d.Logger,
		backend:  d.Backend,
		sessions: d.Sessions,
		states:   d.States,
		views:    views,
	}, nil
}

func (h *Handler) logger(r *http.Request, page string) *logrus.Entry {
	return h.log.WithFields(logrus.Fields{
		"request_id": RequestID(r.Context()),
		"page":       page,
	})
}

// render writes a page and logs a failure to do so. Template errors surface
// as a bare 500.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, pageErr *utils.PageError, data any) {
	err := h.views.render(w, status, page, view{Title: title, Error: pageErr, Data: data})
	if err != nil {
		h.logger(r, page).WithError(err).Error("render failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// session opens the token of a page that cannot work without one. Failures
// carry a redirect to the sign-in flow.
func (h *Handler) session(r *http.Request, format crypto.Format) (auth.Session, *utils.PageError) {
	s, err := h.sessions.FromRequest(r, format)
	return s, h.sessionError(err)
}

func (h *Handler) sessionError(err error) *utils.PageError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrMissingToken):
		return utils.MissingToken().WithRedirect("/login", h.cfg.RedirectDelay)
	default:
		return utils.DecryptionFailed().WithRedirect("/login-failed", h.cfg.RedirectDelay)
	}
}

// backendError maps a backend failure to what the page shows. what completes
// "Failed to ...".
func (h *Handler) backendError(r *http.Request, page, what string, err error) *utils.PageError {
	h.logger(r, page).WithError(err).Warn("backend call failed")
	if errors.Is(err, backend.ErrUnauthorized) {
		return utils.New(http.StatusUnauthorized, "Your session has expired. Please sign in again.").
			WithRedirect("/login-failed", h.cfg.RedirectDelay)
	}
	return utils.BackendFailed(what)
}
