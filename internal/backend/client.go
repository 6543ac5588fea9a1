package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/harrylevesque/convoportal/internal/models"
)

var (
	// ErrUnauthorized matches a StatusError for 401 and 403 responses.
	ErrUnauthorized = errors.New("backend rejected the session")
	// ErrInvalidResponse is returned when a 2xx body cannot be used.
	ErrInvalidResponse = errors.New("invalid backend response")
)

// StatusError is returned for every non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s %s: %s", strings.ToLower(e.Method), e.Path, e.Status)
}

// Is lets errors.Is match ErrUnauthorized.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && (e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden)
}

// Options configures a Client.
type Options struct {
	BaseURL              string
	Timeout              time.Duration
	SubscribeTokenSuffix string
	UnsubscribePath      string
	Logger               logrus.FieldLogger
	HTTP                 *http.Client
}

// Client talks to the ConvoAI backend.
type Client struct {
	base            string
	suffix          string
	unsubscribePath string
	http            *http.Client
	log             logrus.FieldLogger
}

func New(opts Options) *Client {
	hc := opts.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Client{
		base:            strings.TrimRight(opts.BaseURL, "/"),
		suffix:          opts.SubscribeTokenSuffix,
		unsubscribePath: opts.UnsubscribePath,
		http:            hc,
		log:             log,
	}
}

// CurrentPlan fetches the plan the session is subscribed to.
func (c *Client) CurrentPlan(ctx context.Context, bearer string) (models.Plan, error) {
	var p models.Plan
	if err := c.getJSON(ctx, bearer, "/api/current-plan", &p); err != nil {
		return models.Plan{}, err
	}
	if err := p.Validate(); err != nil {
		return models.Plan{}, errors.Wrap(ErrInvalidResponse, err.Error())
	}
	return p, nil
}

// SubscriptionDetails fetches one subscription by id.
func (c *Client) SubscriptionDetails(ctx context.Context, bearer, id string) (models.SubscriptionDetails, error) {
	var d models.SubscriptionDetails
	if err := c.getJSON(ctx, bearer, "/api/subscription-details/"+url.PathEscape(id), &d); err != nil {
		return models.SubscriptionDetails{}, err
	}
	return d, nil
}

// Subscribe starts a subscription and returns the payment page to send the
// user to.
func (c *Client) Subscribe(ctx context.Context, bearer, planID string) (models.SubscribeResult, error) {
	var out models.SubscribeResult
	err := c.post(ctx, bearer+c.suffix, "/api/subscribe", models.SubscribeRequest{PlanID: planID}, &out)
	if err != nil {
		return models.SubscribeResult{}, err
	}
	if err := checkPaymentURL(out.PaypalURL, true); err != nil {
		return models.SubscribeResult{}, err
	}
	return out, nil
}

// ChangePlan submits a plan change. PaypalURL is set when the backend wants
// the user to approve the new plan.
func (c *Client) ChangePlan(ctx context.Context, bearer string, req models.ChangePlanRequest) (models.ChangePlanResult, error) {
	var out models.ChangePlanResult
	if err := c.post(ctx, bearer, "/api/change-plan", req, &out); err != nil {
		return models.ChangePlanResult{}, err
	}
	if err := checkPaymentURL(out.PaypalURL, false); err != nil {
		return models.ChangePlanResult{}, err
	}
	return out, nil
}

// Unsubscribe submits a cancellation. Without an unsubscribe path the
// cancellation is only recorded in the log.
func (c *Client) Unsubscribe(ctx context.Context, bearer string, req models.UnsubscribeRequest) error {
	if c.unsubscribePath == "" {
		c.log.WithFields(logrus.Fields{
			"subscription_id": req.SubscriptionID,
			"reason":          req.Reason,
		}).Info("unsubscribe recorded")
		return nil
	}
	return c.post(ctx, bearer, c.unsubscribePath, req, nil)
}

func checkPaymentURL(raw string, required bool) error {
	if raw == "" {
		if required {
			return errors.Wrap(ErrInvalidResponse, "missing paypalUrl")
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return errors.Wrapf(ErrInvalidResponse, "paypalUrl %q is not an absolute http(s) url", raw)
	}
	return nil
}

func (c *Client) post(ctx context.Context, bearer, path string, in, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return errors.Wrap(err, "encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, buf)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, bearer, path, out)
}

func (c *Client) getJSON(ctx context.Context, bearer, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	return c.do(req, bearer, path, out)
}

func (c *Client) do(req *http.Request, bearer, path string, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "backend %s %s", strings.ToLower(req.Method), path)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method":   req.Method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("backend request")

	if resp.StatusCode/100 != 2 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &StatusError{Method: req.Method, Path: path, Status: resp.Status, Code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(ErrInvalidResponse, err.Error())
	}
	return nil
}
