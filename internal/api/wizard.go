package api

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/harrylevesque/convoportal/internal/auth"
	"github.com/harrylevesque/convoportal/internal/crypto"
	"github.com/harrylevesque/convoportal/internal/models"
	"github.com/harrylevesque/convoportal/internal/utils"
	"github.com/harrylevesque/convoportal/internal/wizard"
)

const (
	opBack = "back"
	opNext = "next"
)

// wizardView is the data of the change-plan and unsubscribe templates.
type wizardView struct {
	Step        string
	Sealed      string
	State       wizard.State
	Current     models.Plan
	Details     *models.SubscriptionDetails
	Reasons     []string
	ReasonTitle string
	Options     []models.Plan
	Selected    models.Plan
	Reason      string
	Submit      bool
	Blocked     bool
}

func formInput(r *http.Request) wizard.Input {
	return wizard.Input{
		Action:      r.PostFormValue("action"),
		Reason:      r.PostFormValue("reason"),
		OtherReason: r.PostFormValue("otherReason"),
		PlanID:      r.PostFormValue("planId"),
	}
}

func wizardLogger(log *logrus.Entry, s wizard.State) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"wizard_id": s.ID,
		"step":      s.Step.String(),
	})
}

// openState recovers the wizard state posted with a form and the session it
// carries.
func (h *Handler) openState(r *http.Request, page string, flow wizard.Flow) (wizard.State, auth.Session, *utils.PageError) {
	log := h.logger(r, page)
	s, err := h.states.Decode(r.PostFormValue(stateField))
	if err != nil {
		log.WithError(err).Info("wizard state rejected")
		return wizard.State{}, auth.Session{}, utils.StaleState()
	}
	if s.Flow != flow.Name() {
		wizardLogger(log, s).WithField("flow", s.Flow).Info("wizard state from another flow")
		return wizard.State{}, auth.Session{}, utils.StaleState()
	}
	sess, err := h.sessions.Open(s.Token, crypto.FormatColon)
	if err != nil {
		wizardLogger(log, s).WithError(err).Info("token rejected")
		return wizard.State{}, auth.Session{}, h.sessionError(err)
	}
	return s, sess, nil
}

// renderWizard seals the state into the view and renders it.
func (h *Handler) renderWizard(w http.ResponseWriter, r *http.Request, status int, page, title string, flow wizard.Flow, v wizardView, perr *utils.PageError) {
	sealed, err := h.states.Encode(v.State)
	if err != nil {
		wizardLogger(h.logger(r, page), v.State).WithError(err).Error("seal wizard state")
		h.render(w, r, http.StatusInternalServerError, pageError, "Error",
			utils.New(http.StatusInternalServerError, "Something went wrong. Please try again."), nil)
		return
	}
	v.Sealed = sealed
	v.Step = v.State.Step.String()
	v.Reasons = flow.Reasons()
	v.Submit = flow.SubmitsAt(v.State.Step)
	h.render(w, r, status, page, title, perr, v)
}
