package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/harrylevesque/convoportal/internal/auth"
	"github.com/harrylevesque/convoportal/internal/crypto"
	"github.com/harrylevesque/convoportal/internal/utils"
)

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageLogin, "Sign In", nil, nil)
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageLoginFailed, "Login Failed", nil, nil)
}

type registrationView struct {
	Name   string
	Claims []auth.Claim
}

// registrationComplete confirms a new account. Its token uses the prefixed
// wire format.
func (h *Handler) registrationComplete(w http.ResponseWriter, r *http.Request) {
	sess, perr := h.session(r, crypto.FormatPrefixed)
	if perr != nil {
		h.logger(r, pageRegistrationComplete).WithField("reason", perr.Message).Info("no usable token")
		h.render(w, r, perr.Status, pageRegistrationComplete, "Registration Complete", perr, nil)
		return
	}
	var v registrationView
	claims, err := auth.Claims(sess.Bearer)
	if err != nil {
		h.logger(r, pageRegistrationComplete).WithError(err).Warn("token is not a jwt")
	} else {
		v.Name = auth.DisplayName(claims)
		v.Claims = auth.SortedClaims(claims)
	}
	h.render(w, r, http.StatusOK, pageRegistrationComplete, "Registration Complete", nil, v)
}

type paymentResultView struct {
	Success bool
	Plan    string
}

func (h *Handler) paymentResult(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := paymentResultView{Success: q.Get("status") == "success", Plan: q.Get("plan")}
	title := "Payment Failed"
	if v.Success {
		title = "Payment Successful"
	}
	h.render(w, r, http.StatusOK, pagePaymentResult, title, nil, v)
}

// paymentSuccess and paymentFailure take the plan name or the failure
// message in the plain "token" parameter and send visitors without it home.
func (h *Handler) paymentSuccess(w http.ResponseWriter, r *http.Request) {
	plan := strings.TrimSpace(r.URL.Query().Get(auth.TokenParam))
	if plan == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, pagePaymentSuccess, "Payment Successful", nil, plan)
}

func (h *Handler) paymentFailure(w http.ResponseWriter, r *http.Request) {
	msg := strings.TrimSpace(r.URL.Query().Get(auth.TokenParam))
	if msg == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, pagePaymentFailure, "Payment Failed", nil, msg)
}

func (h *Handler) legal(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["doc"]
	body, ok := h.views.legal[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	title := "Terms & Conditions"
	if name == "privacy" {
		title = "Privacy Policy"
	}
	h.render(w, r, http.StatusOK, pageLegal, title, nil, body)
}

func redirectTo(target string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, http.StatusFound)
	}
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, pageError, "Not Found", utils.New(http.StatusNotFound, "This page does not exist."), nil)
}
