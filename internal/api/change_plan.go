package api

import (
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/harrylevesque/convoportal/internal/auth"
	"github.com/harrylevesque/convoportal/internal/crypto"
	"github.com/harrylevesque/convoportal/internal/models"
	"github.com/harrylevesque/convoportal/internal/utils"
	"github.com/harrylevesque/convoportal/internal/wizard"
)

const changePlanTitle = "Change Plan"

// changePlanStart serves GET /change-plan and GET /change-plan/{action}.
func (h *Handler) changePlanStart(w http.ResponseWriter, r *http.Request) {
	flow := wizard.ChangePlan()
	sess, perr := h.session(r, crypto.FormatColon)
	if perr != nil {
		h.render(w, r, perr.Status, pageChangePlan, changePlanTitle, perr, nil)
		return
	}
	current, err := h.backend.CurrentPlan(r.Context(), sess.Bearer)
	if err != nil {
		perr := h.backendError(r, pageChangePlan, "fetch your current plan", err)
		h.render(w, r, perr.Status, pageChangePlan, changePlanTitle, perr, nil)
		return
	}

	id := r.URL.Query().Get("id")
	s := flow.Start(sess.Raw, id)
	if a, ok := mux.Vars(r)["action"]; ok {
		action, err := wizard.ParseAction(a)
		if err != nil {
			h.notFound(w, r)
			return
		}
		if s, err = flow.StartWithAction(sess.Raw, id, action); err != nil {
			h.showChangePlan(w, r, http.StatusUnprocessableEntity, flow, s, current, utils.InvalidInput(err.Error()))
			return
		}
	}
	wizardLogger(h.logger(r, pageChangePlan), s).Debug("wizard started")
	h.showChangePlan(w, r, http.StatusOK, flow, s, current, nil)
}

// changePlanStep serves POST /change-plan: one step forward or back.
func (h *Handler) changePlanStep(w http.ResponseWriter, r *http.Request) {
	flow := wizard.ChangePlan()
	s, sess, perr := h.openState(r, pageChangePlan, flow)
	if perr != nil {
		h.render(w, r, perr.Status, pageChangePlan, changePlanTitle, perr, nil)
		return
	}
	current, err := h.backend.CurrentPlan(r.Context(), sess.Bearer)
	if err != nil {
		perr := h.backendError(r, pageChangePlan, "fetch your current plan", err)
		h.render(w, r, perr.Status, pageChangePlan, changePlanTitle, perr, nil)
		return
	}

	if r.PostFormValue("op") == opBack {
		prev, err := flow.Back(s)
		switch {
		case errors.Is(err, wizard.ErrAtFirstStep):
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		case err != nil:
			h.showChangePlan(w, r, http.StatusUnprocessableEntity, flow, s, current, utils.InvalidInput(err.Error()))
		default:
			h.showChangePlan(w, r, http.StatusOK, flow, prev, current, nil)
		}
		return
	}

	options := wizard.Options(current, h.cfg.Plans, s.Action)
	if flow.SubmitsAt(s.Step) {
		h.submitChangePlan(w, r, flow, s, sess, current, options)
		return
	}
	next, err := flow.Advance(s, formInput(r), options)
	if err != nil {
		h.showChangePlan(w, r, http.StatusUnprocessableEntity, flow, next, current, utils.InvalidInput(err.Error()))
		return
	}
	h.showChangePlan(w, r, http.StatusOK, flow, next, current, nil)
}

func (h *Handler) submitChangePlan(w http.ResponseWriter, r *http.Request, flow wizard.Flow, s wizard.State, sess auth.Session, current models.Plan, options []models.Plan) {
	log := wizardLogger(h.logger(r, pageChangePlan), s)
	if err := flow.CanProceed(s, options); err != nil {
		h.showChangePlan(w, r, http.StatusUnprocessableEntity, flow, s, current, utils.InvalidInput(err.Error()))
		return
	}
	plan, _ := wizard.FindPlan(options, s.PlanID)

	res, err := h.backend.ChangePlan(r.Context(), sess.Bearer, models.ChangePlanRequest{
		PlanID: plan.BackendID(),
		Action: string(s.Action),
		Reason: wizard.SubmittedReason(s),
	})
	if err != nil {
		perr := h.backendError(r, pageChangePlan, "change your plan", err)
		h.showChangePlan(w, r, perr.Status, flow, s, current, perr)
		return
	}
	log.WithFields(logrus.Fields{
		"action": s.Action,
		"from":   current.Name,
		"to":     plan.Name,
	}).Info("plan change submitted")

	if res.PaypalURL != "" {
		http.Redirect(w, r, res.PaypalURL, http.StatusSeeOther)
		return
	}
	q := url.Values{"status": {"success"}, "plan": {plan.Name}}
	http.Redirect(w, r, "/payment-result?"+q.Encode(), http.StatusSeeOther)
}

func (h *Handler) showChangePlan(w http.ResponseWriter, r *http.Request, status int, flow wizard.Flow, s wizard.State, current models.Plan, perr *utils.PageError) {
	v := wizardView{
		State:       s,
		Current:     current,
		ReasonTitle: "Why are you downgrading?",
		Options:     wizard.Options(current, h.cfg.Plans, s.Action),
	}
	v.Blocked = s.Step == wizard.StepChoosePlan && len(v.Options) == 0
	if s.Step == wizard.StepConfirm {
		v.Selected, _ = wizard.FindPlan(v.Options, s.PlanID)
		v.Reason = wizard.SubmittedReason(s)
	}
	h.renderWizard(w, r, status, pageChangePlan, changePlanTitle, flow, v, perr)
}
