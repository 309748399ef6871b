// Package dialogue implements the conversational state machine behind the
// voice receptionist: triage, booking, reschedule and cancel flows.
package dialogue

import (
	"context"
	"time"

	"github.com/rochsolutions/ai-receptionist/internal/intent"
	"github.com/rochsolutions/ai-receptionist/internal/slots"
)

// State identifies where a call is in the dialogue. The machine is a flat
// state enum; every flow ends back at StateTriage.
type State string

const (
	StateTriage State = "TRIAGE"

	StateBookPatientType State = "BOOK_PATIENT_TYPE"
	StateBookName        State = "BOOK_NAME"
	StateBookPhone       State = "BOOK_PHONE"
	StateBookReason      State = "BOOK_REASON"
	StateBookTimePref    State = "BOOK_TIME_PREF"
	StateBookOfferSlots  State = "BOOK_OFFER_SLOTS"
	StateBookPickSlot    State = "BOOK_PICK_SLOT"
	StateBookConfirmSlot State = "BOOK_CONFIRM_SLOT"

	StateReschChoice     State = "RESCH_CHOICE"
	StateReschName       State = "RESCH_NAME"
	StateReschPhone      State = "RESCH_PHONE"
	StateReschFind       State = "RESCH_FIND"
	StateReschOfferSlots State = "RESCH_OFFER_SLOTS"
	StateReschPickSlot   State = "RESCH_PICK_SLOT"
	StateReschConfirm    State = "RESCH_CONFIRM"

	StateCancelConfirm State = "CANCEL_CONFIRM"
)

// Collected holds the structured fields a flow gathers one turn at a time.
// Cleared whenever a flow exits.
type Collected struct {
	PatientType string `json:"patient_type,omitempty"`
	Name        string `json:"name,omitempty"`
	// Phone is stored as bare digits after validation.
	Phone    string `json:"phone,omitempty"`
	Reason   string `json:"reason,omitempty"`
	TimePref string `json:"time_pref,omitempty"`
	// Action distinguishes reschedule from cancel inside the shared flow.
	Action string `json:"action,omitempty"`
}

// Session is the per-call dialogue state. It is mutated only by the machine
// during a turn and persisted externally between turns with an idle TTL.
type Session struct {
	State        State        `json:"state"`
	Intent       intent.Label `json:"intent,omitempty"`
	Collected    Collected    `json:"collected"`
	ActiveClinic string       `json:"active_clinic,omitempty"`
	// OfferedSlots holds the slots most recently read out to the caller, at
	// most three. SelectedSlot is always an element of this set.
	OfferedSlots    []slots.Slot `json:"last_offered_slots,omitempty"`
	SelectedSlot    *slots.Slot  `json:"selected_slot,omitempty"`
	PendingEventRef string       `json:"pending_event_reference,omitempty"`
}

// NewSession returns a fresh session in the triage state.
func NewSession() *Session {
	return &Session{State: StateTriage}
}

// ResetFlow aborts any active flow: working data is cleared and the machine
// returns to triage. Safe to call from any state.
func (s *Session) ResetFlow() {
	s.State = StateTriage
	s.Collected = Collected{}
	s.OfferedSlots = nil
	s.SelectedSlot = nil
	s.PendingEventRef = ""
}

// Event is a calendar event as seen by the reschedule lookup.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Calendar is the external calendar collaborator. Implementations must not
// hang: calls are expected to fail within a bounded timeout, and a missing
// stored credential is reported as an error without any mutation.
type Calendar interface {
	QueryBusy(ctx context.Context, calendarID string, start, end time.Time) ([]slots.Busy, error)
	CreateEvent(ctx context.Context, calendarID string, start, end time.Time, summary, description string) (string, error)
	PatchEventTime(ctx context.Context, calendarID, eventID string, start, end time.Time) error
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	ListUpcoming(ctx context.Context, calendarID string, horizonDays, max int) ([]Event, error)
}
