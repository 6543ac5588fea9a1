package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires every portal route.
func NewRouter(d Deps) (*mux.Router, error) {
	h, err := newHandler(d)
	if err != nil {
		return nil, err
	}
	proxy, err := newProxy(d.Config.Backend.BaseURL, d.Logger)
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	r.Use(requestID, accessLog(d.Logger), recoverer(d.Logger))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)

	// ===== Pages =====
	r.Handle("/", redirectTo("/login")).Methods(http.MethodGet)
	r.HandleFunc("/login", h.login).Methods(http.MethodGet)
	r.HandleFunc("/login-failed", h.loginFailed).Methods(http.MethodGet)
	r.HandleFunc("/registration-complete", h.registrationComplete).Methods(http.MethodGet)
	r.HandleFunc("/pricing", h.pricing).Methods(http.MethodGet)
	r.HandleFunc("/pricing/subscribe", h.subscribe).Methods(http.MethodPost)
	r.HandleFunc("/change-plan", h.changePlanStart).Methods(http.MethodGet)
	r.HandleFunc("/change-plan", h.changePlanStep).Methods(http.MethodPost)
	r.HandleFunc("/change-plan/{action:upgrade|downgrade}", h.changePlanStart).Methods(http.MethodGet)
	r.HandleFunc("/unsubscribe", h.unsubscribeStart).Methods(http.MethodGet)
	r.HandleFunc("/unsubscribe", h.unsubscribeStep).Methods(http.MethodPost)
	r.HandleFunc("/payment-result", h.paymentResult).Methods(http.MethodGet)
	r.HandleFunc("/payment-success", h.paymentSuccess).Methods(http.MethodGet)
	r.HandleFunc("/payment-failure", h.paymentFailure).Methods(http.MethodGet)
	r.HandleFunc("/{doc:terms|privacy}", h.legal).Methods(http.MethodGet)
	r.Handle("/support", redirectTo(d.Config.Links.Support)).Methods(http.MethodGet)
	r.Handle("/dashboard", redirectTo(d.Config.Links.Dashboard)).Methods(http.MethodGet)

	// ===== Backend proxy =====
	api := r.PathPrefix("/api").Subrouter()
	api.Use(cors(d.Config.CORS))
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(preflight)
	api.Handle("/current-plan", proxy).Methods(http.MethodGet)
	api.Handle("/subscription-details/{id}", proxy).Methods(http.MethodGet)
	api.Handle("/subscribe", proxy).Methods(http.MethodPost)
	api.Handle("/change-plan", proxy).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(h.notFound)
	return r, nil
}
