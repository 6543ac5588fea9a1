package wizard

import "github.com/google/uuid"

// State is everything a wizard run knows. It lives for one request: the
// page seals it into the form it renders and the next request opens it again.
type State struct {
	ID             string `json:"id"`
	Flow           string `json:"flow"`
	Step           Step   `json:"step"`
	Action         Action `json:"action,omitempty"`
	Reason         string `json:"reason,omitempty"`
	OtherReason    string `json:"other_reason,omitempty"`
	PlanID         string `json:"plan_id,omitempty"`
	Token          string `json:"token"`
	SubscriptionID string `json:"subscription_id,omitempty"`
}

func newID() string {
	return "w--" + uuid.New().String()
}
