package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrylevesque/convoportal/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts.BaseURL = srv.URL + "/"
	opts.Timeout = 2 * time.Second
	return New(opts)
}

func TestCurrentPlan(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/current-plan", r.URL.Path)
		assert.Equal(t, "Bearer jwt", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"name":"Pro","price":29.99,"features":["a"]}`))
	}, Options{})

	p, err := c.CurrentPlan(context.Background(), "jwt")
	require.NoError(t, err)
	assert.Equal(t, "Pro", p.Name)
	assert.Equal(t, 29.99, p.Price)
}

func TestCurrentPlanRejectsInvalidPlan(t *testing.T) {
	for name, body := range map[string]string{
		"negative price": `{"name":"Pro","price":-1}`,
		"no name":        `{"price":5}`,
		"not json":       `<html>`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}, Options{})
			_, err := c.CurrentPlan(context.Background(), "jwt")
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestStatusErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/current-plan" {
			http.Error(w, "nope", http.StatusUnauthorized)
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}, Options{})

	_, err := c.CurrentPlan(context.Background(), "jwt")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.SubscriptionDetails(context.Background(), "jwt", "sub-1")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "/api/subscription-details/sub-1", se.Path)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestSubscriptionDetailsEscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/subscription-details/a%2Fb", r.URL.EscapedPath())
		w.Write([]byte(`{"name":"Pro","price":29.99,"renewalDate":"2026-11-01","email":"a@b.c"}`))
	}, Options{})
	d, err := c.SubscriptionDetails(context.Background(), "jwt", "a/b")
	require.NoError(t, err)
	assert.Equal(t, "2026-11-01", d.RenewalDate)
}

func TestSubscribe(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer jwtSUFFIX", r.Header.Get("Authorization"))
		var in models.SubscribeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "P-123", in.PlanID)
		w.Write([]byte(`{"paypalUrl":"https://paypal.example/approve?x=1"}`))
	}, Options{SubscribeTokenSuffix: "SUFFIX"})

	res, err := c.Subscribe(context.Background(), "jwt", "P-123")
	require.NoError(t, err)
	assert.Equal(t, "https://paypal.example/approve?x=1", res.PaypalURL)
}

func TestSubscribeRejectsBadPaymentURL(t *testing.T) {
	for _, body := range []string{`{}`, `{"paypalUrl":"javascript:alert(1)"}`, `{"paypalUrl":"/relative"}`} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}, Options{})
		_, err := c.Subscribe(context.Background(), "jwt", "P-1")
		assert.ErrorIs(t, err, ErrInvalidResponse, body)
	}
}

func TestChangePlan(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/change-plan", r.URL.Path)
		var in models.ChangePlanRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, models.ChangePlanRequest{PlanID: "basic", Action: "downgrade", Reason: "Too expensive"}, in)
		w.Write([]byte(`{"status":"ok"}`))
	}, Options{})

	res, err := c.ChangePlan(context.Background(), "jwt", models.ChangePlanRequest{PlanID: "basic", Action: "downgrade", Reason: "Too expensive"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Status)
	assert.Empty(t, res.PaypalURL)
}

func TestUnsubscribe(t *testing.T) {
	t.Run("posts when a path is configured", func(t *testing.T) {
		called := false
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
			assert.Equal(t, "/api/unsubscribe", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		}, Options{UnsubscribePath: "/api/unsubscribe"})
		require.NoError(t, c.Unsubscribe(context.Background(), "jwt", models.UnsubscribeRequest{Reason: "Other text"}))
		assert.True(t, called)
	})

	t.Run("logs only without a path", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("backend must not be called")
		}, Options{Logger: logger})
		require.NoError(t, c.Unsubscribe(context.Background(), "jwt", models.UnsubscribeRequest{SubscriptionID: "s1", Reason: "Too expensive"}))
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
		assert.Equal(t, "Too expensive", hook.LastEntry().Data["reason"])
	})
}

func TestContextCancel(t *testing.T) {
	block := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}, Options{})
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.CurrentPlan(ctx, "jwt")
	assert.ErrorIs(t, err, context.Canceled)
}
