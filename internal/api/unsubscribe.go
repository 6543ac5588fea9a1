package api

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/harrylevesque/convoportal/internal/auth"
	"github.com/harrylevesque/convoportal/internal/crypto"
	"github.com/harrylevesque/convoportal/internal/models"
	"github.com/harrylevesque/convoportal/internal/utils"
	"github.com/harrylevesque/convoportal/internal/wizard"
)

const unsubscribeTitle = "Unsubscribe"

func (h *Handler) unsubscribeStart(w http.ResponseWriter, r *http.Request) {
	flow := wizard.Unsubscribe()
	sess, perr := h.session(r, crypto.FormatColon)
	if perr != nil {
		h.render(w, r, perr.Status, pageUnsubscribe, unsubscribeTitle, perr, nil)
		return
	}
	s := flow.Start(sess.Raw, r.URL.Query().Get("id"))
	wizardLogger(h.logger(r, pageUnsubscribe), s).Debug("wizard started")
	h.showUnsubscribe(w, r, http.StatusOK, flow, s, sess, nil)
}

func (h *Handler) unsubscribeStep(w http.ResponseWriter, r *http.Request) {
	flow := wizard.Unsubscribe()
	s, sess, perr := h.openState(r, pageUnsubscribe, flow)
	if perr != nil {
		h.render(w, r, perr.Status, pageUnsubscribe, unsubscribeTitle, perr, nil)
		return
	}

	if r.PostFormValue("op") == opBack {
		prev, err := flow.Back(s)
		switch {
		case errors.Is(err, wizard.ErrAtFirstStep):
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		case err != nil:
			h.showUnsubscribe(w, r, http.StatusOK, flow, s, sess, nil)
		default:
			h.showUnsubscribe(w, r, http.StatusOK, flow, prev, sess, nil)
		}
		return
	}

	next, err := flow.Advance(s, formInput(r), nil)
	switch {
	case errors.Is(err, wizard.ErrFlowComplete):
		h.showUnsubscribe(w, r, http.StatusOK, flow, s, sess, nil)
		return
	case err != nil:
		h.showUnsubscribe(w, r, http.StatusUnprocessableEntity, flow, next, sess, utils.InvalidInput(err.Error()))
		return
	}

	if flow.SubmitsAt(s.Step) {
		req := models.UnsubscribeRequest{
			SubscriptionID: s.SubscriptionID,
			Reason:         wizard.SubmittedReason(next),
		}
		if err := h.backend.Unsubscribe(r.Context(), sess.Bearer, req); err != nil {
			perr := h.backendError(r, pageUnsubscribe, "cancel your subscription", err)
			attempt := next
			attempt.Step = s.Step
			h.showUnsubscribe(w, r, perr.Status, flow, attempt, sess, perr)
			return
		}
		wizardLogger(h.logger(r, pageUnsubscribe), next).Info("unsubscribe submitted")
	}
	h.showUnsubscribe(w, r, http.StatusOK, flow, next, sess, nil)
}

// showUnsubscribe loads the subscription shown on the review step: the
// details of the given subscription id, or the current plan without one.
func (h *Handler) showUnsubscribe(w http.ResponseWriter, r *http.Request, status int, flow wizard.Flow, s wizard.State, sess auth.Session, perr *utils.PageError) {
	v := wizardView{State: s, ReasonTitle: "Reason for Unsubscribing"}
	if s.Step == wizard.StepReview {
		details, err := h.subscription(r, sess, s.SubscriptionID)
		if err != nil {
			perr := h.backendError(r, pageUnsubscribe, "fetch your subscription details", err)
			h.render(w, r, perr.Status, pageUnsubscribe, unsubscribeTitle, perr, nil)
			return
		}
		v.Details = &details
	}
	h.renderWizard(w, r, status, pageUnsubscribe, unsubscribeTitle, flow, v, perr)
}

func (h *Handler) subscription(r *http.Request, sess auth.Session, id string) (models.SubscriptionDetails, error) {
	if id != "" {
		return h.backend.SubscriptionDetails(r.Context(), sess.Bearer, id)
	}
	p, err := h.backend.CurrentPlan(r.Context(), sess.Bearer)
	if err != nil {
		return models.SubscriptionDetails{}, err
	}
	return models.SubscriptionDetails{Name: p.Name, Price: p.Price, PaymentPlanID: p.PaymentPlanID}, nil
}
