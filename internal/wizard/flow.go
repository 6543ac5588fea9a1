package wizard

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/harrylevesque/convoportal/internal/models"
)

// Step identifies the view a wizard renders.
type Step int

const (
	StepReview Step = iota + 1
	StepChooseAction
	StepReason
	StepChoosePlan
	StepConfirm
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepReview:
		return "review"
	case StepChooseAction:
		return "choose-action"
	case StepReason:
		return "reason"
	case StepChoosePlan:
		return "choose-plan"
	case StepConfirm:
		return "confirm"
	case StepDone:
		return "done"
	}
	return "unknown"
}

// Action is the direction of a plan change.
type Action string

const (
	ActionUpgrade   Action = "upgrade"
	ActionDowngrade Action = "downgrade"
)

// ParseAction accepts "upgrade" and "downgrade".
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionUpgrade, ActionDowngrade:
		return a, nil
	}
	return "", ErrActionRequired
}

// OtherReason is the reason that requires free text.
const OtherReason = "Other"

var (
	ErrActionRequired      = errors.New("choose upgrade or downgrade")
	ErrReasonRequired      = errors.New("select a reason")
	ErrOtherReasonRequired = errors.New("please specify your reason")
	ErrPlanRequired        = errors.New("select one of the offered plans")
	ErrAtFirstStep         = errors.New("already at the first step")
	ErrFlowComplete        = errors.New("wizard already complete")
	ErrFlowMismatch        = errors.New("state belongs to another wizard")
)

// Flow is one wizard's step sequence. Flows are built by ChangePlan and
// Unsubscribe; the zero value is not usable.
type Flow struct {
	name     string
	steps    []Step
	reasons  []string
	submitAt Step
}

// ChangePlan is review, choose action, reason (downgrade only), choose plan,
// confirm. Completing confirm submits the change.
func ChangePlan() Flow {
	return Flow{
		name:  "change-plan",
		steps: []Step{StepReview, StepChooseAction, StepReason, StepChoosePlan, StepConfirm},
		reasons: []string{
			"Too expensive",
			"Not using all features",
			"Found a better alternative",
			"Missing features",
			OtherReason,
		},
		submitAt: StepConfirm,
	}
}

// Unsubscribe is review, reason, done. Completing the reason submits the
// cancellation.
func Unsubscribe() Flow {
	return Flow{
		name:  "unsubscribe",
		steps: []Step{StepReview, StepReason, StepDone},
		reasons: []string{
			"Too expensive",
			"Not using it enough",
			"Found a better alternative",
			"Missing features",
			OtherReason,
		},
		submitAt: StepReason,
	}
}

// Name is the flow identifier stored in State.Flow.
func (f Flow) Name() string { return f.name }

// Reasons returns a copy of the selectable reasons.
func (f Flow) Reasons() []string { return append([]string(nil), f.reasons...) }

// SubmitsAt reports whether completing step sends the wizard's request to
// the backend.
func (f Flow) SubmitsAt(step Step) bool { return step == f.submitAt }

// Start returns the initial state of a wizard run.
func (f Flow) Start(token, subscriptionID string) State {
	return State{
		ID:             newID(),
		Flow:           f.name,
		Step:           f.steps[0],
		Token:          token,
		SubscriptionID: subscriptionID,
	}
}

// StartWithAction begins a change-plan run with the action already chosen,
// positioned where advancing from the action step would have landed.
func (f Flow) StartWithAction(token, subscriptionID string, action Action) (State, error) {
	s := f.Start(token, subscriptionID)
	if !f.has(StepChooseAction) {
		return s, ErrFlowMismatch
	}
	s.Step = StepChooseAction
	return f.Advance(s, Input{Action: string(action)}, nil)
}

// Input is what the user submitted on the current step.
type Input struct {
	Action      string
	Reason      string
	OtherReason string
	PlanID      string
}

// Advance validates the input for the current step and moves forward.
// options are the plans offered on the choose-plan step.
func (f Flow) Advance(s State, in Input, options []models.Plan) (State, error) {
	if s.Flow != f.name {
		return s, ErrFlowMismatch
	}
	switch s.Step {
	case StepChooseAction:
		a, err := ParseAction(in.Action)
		if err != nil {
			return s, err
		}
		s.Action = a
		if a == ActionUpgrade {
			s.Reason, s.OtherReason = "", ""
		}
	case StepReason:
		s.Reason = strings.TrimSpace(in.Reason)
		s.OtherReason = strings.TrimSpace(in.OtherReason)
		if s.Reason != OtherReason {
			s.OtherReason = ""
		}
	case StepChoosePlan:
		s.PlanID = in.PlanID
	}
	if err := f.CanProceed(s, options); err != nil {
		return s, err
	}
	next, ok := f.next(s)
	if !ok {
		return s, ErrFlowComplete
	}
	s.Step = next
	return s, nil
}

// CanProceed reports why the proceed action of the current step is disabled,
// or nil when it is enabled.
func (f Flow) CanProceed(s State, options []models.Plan) error {
	switch s.Step {
	case StepChooseAction:
		if _, err := ParseAction(string(s.Action)); err != nil {
			return err
		}
	case StepReason:
		if !f.isReason(s.Reason) {
			return ErrReasonRequired
		}
		if s.Reason == OtherReason && strings.TrimSpace(s.OtherReason) == "" {
			return ErrOtherReasonRequired
		}
	case StepChoosePlan, StepConfirm:
		if !f.has(StepChoosePlan) {
			break
		}
		if _, ok := FindPlan(options, s.PlanID); !ok {
			return ErrPlanRequired
		}
	}
	if _, ok := f.next(s); !ok && s.Step != f.submitAt {
		return ErrFlowComplete
	}
	return nil
}

// Back moves to the previous step, skipping the reason step for upgrades.
func (f Flow) Back(s State) (State, error) {
	if s.Flow != f.name {
		return s, ErrFlowMismatch
	}
	if s.Step == StepDone {
		return s, ErrFlowComplete
	}
	i := f.index(s.Step)
	for i--; i >= 0; i-- {
		if !f.skipped(s, f.steps[i]) {
			s.Step = f.steps[i]
			return s, nil
		}
	}
	return s, ErrAtFirstStep
}

// SubmittedReason is the reason sent to the backend: the free text for
// "Other", otherwise the selected reason.
func SubmittedReason(s State) string {
	if s.Reason == OtherReason {
		return s.OtherReason
	}
	return s.Reason
}

func (f Flow) next(s State) (Step, bool) {
	i := f.index(s.Step)
	if i < 0 {
		return 0, false
	}
	for i++; i < len(f.steps); i++ {
		if !f.skipped(s, f.steps[i]) {
			return f.steps[i], true
		}
	}
	return 0, false
}

// skipped holds the single conditional skip: upgrades never ask for a reason.
func (f Flow) skipped(s State, step Step) bool {
	return step == StepReason && f.has(StepChooseAction) && s.Action == ActionUpgrade
}

func (f Flow) index(step Step) int {
	for i, st := range f.steps {
		if st == step {
			return i
		}
	}
	return -1
}

func (f Flow) has(step Step) bool { return f.index(step) >= 0 }

func (f Flow) isReason(r string) bool {
	for _, reason := range f.reasons {
		if r == reason {
			return true
		}
	}
	return false
}
