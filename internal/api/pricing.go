package api

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/harrylevesque/convoportal/internal/auth"
	"github.com/harrylevesque/convoportal/internal/backend"
	"github.com/harrylevesque/convoportal/internal/crypto"
	"github.com/harrylevesque/convoportal/internal/models"
	"github.com/harrylevesque/convoportal/internal/utils"
	"github.com/harrylevesque/convoportal/internal/wizard"
)

type pricingView struct {
	Plans []models.Plan
	// Token is the encrypted session token, echoed into each subscribe form.
	// Empty when the visitor has no usable session.
	Token string
}

// pricing lists the catalog. Without a usable session the plans are still
// shown but cannot be subscribed to.
func (h *Handler) pricing(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.FromRequest(r, crypto.FormatColon)
	var perr *utils.PageError
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrMissingToken):
		perr = utils.New(http.StatusOK, "Sign in to subscribe to a plan.")
	default:
		h.logger(r, pagePricing).WithError(err).Info("token rejected")
		perr = utils.DecryptionFailed()
	}
	h.render(w, r, http.StatusOK, pagePricing, "Pricing", perr, pricingView{Plans: h.cfg.Plans, Token: sess.Raw})
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, pagePricing)
	v := pricingView{Plans: h.cfg.Plans}

	sess, perr := h.session(r, crypto.FormatColon)
	if perr != nil {
		h.render(w, r, perr.Status, pagePricing, "Pricing", perr, v)
		return
	}
	v.Token = sess.Raw

	plan, ok := wizard.FindPlan(h.cfg.Plans, r.PostFormValue("planId"))
	if !ok {
		h.render(w, r, http.StatusUnprocessableEntity, pagePricing, "Pricing", utils.InvalidInput("Please choose one of the plans below."), v)
		return
	}

	res, err := h.backend.Subscribe(r.Context(), sess.Bearer, plan.BackendID())
	if err != nil {
		log.WithError(err).WithField("plan", plan.ID).Warn("subscribe failed")
		perr := utils.New(http.StatusBadGateway, "An error occurred while processing your subscription. Please try again.")
		if errors.Is(err, backend.ErrUnauthorized) {
			perr = h.backendError(r, pagePricing, "", err)
		}
		h.render(w, r, perr.Status, pagePricing, "Pricing", perr, v)
		return
	}
	log.WithField("plan", plan.ID).Info("subscription started")
	http.Redirect(w, r, res.PaypalURL, http.StatusSeeOther)
}
