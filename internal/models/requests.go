package models

// SubscribeRequest is the body of POST /api/subscribe.
type SubscribeRequest struct {
	PlanID string `json:"planId"`
}

// SubscribeResult carries the payment provider approval link.
type SubscribeResult struct {
	PaypalURL string `json:"paypalUrl"`
}

// ChangePlanRequest is the body of POST /api/change-plan.
type ChangePlanRequest struct {
	PlanID string `json:"planId"`
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

// ChangePlanResult is what the backend answers to a plan change. PaypalURL is
// set when the new plan needs a fresh payment approval.
type ChangePlanResult struct {
	Status    string `json:"status,omitempty"`
	PaypalURL string `json:"paypalUrl,omitempty"`
}

// UnsubscribeRequest records why a subscription is being cancelled.
type UnsubscribeRequest struct {
	SubscriptionID string `json:"subscriptionId,omitempty"`
	Reason         string `json:"reason"`
}
