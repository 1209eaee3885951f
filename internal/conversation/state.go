package conversation

import "context"

// Step is the stage of the guided booking dialogue a user currently occupies.
type Step string

const (
	StepIdle            Step = ""
	StepChoosingMonth   Step = "choosing_month"
	StepChoosingWeek    Step = "choosing_week"
	StepChoosingDay     Step = "choosing_day"
	StepChoosingSlot    Step = "choosing_slot"
	StepCollectingName  Step = "collecting_name"
	StepCollectingPhone Step = "collecting_phone"
	StepCollectingEmail Step = "collecting_email"
)

// State is the per-user conversation record: the current step plus the
// selections accumulated so far. Losing it on restart just restarts the
// dialogue.
type State struct {
	Step     Step   `json:"step"`
	Month    string `json:"month,omitempty"` // YYYY-MM
	Week     string `json:"week,omitempty"`  // ISO date of the week's Monday
	Day      string `json:"day,omitempty"`   // YYYY-MM-DD
	SlotID   string `json:"slot_id,omitempty"`
	SlotDate string `json:"slot_date,omitempty"`
	SlotTime string `json:"slot_time,omitempty"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// StateStore holds conversation state keyed by chat sender id. Created
// lazily on first event, cleared on completion, cancellation or restart.
type StateStore interface {
	Get(ctx context.Context, senderID string) (State, error)
	Put(ctx context.Context, senderID string, st State) error
	Clear(ctx context.Context, senderID string) error
}
