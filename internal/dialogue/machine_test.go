package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rochsolutions/ai-receptionist/internal/clinic"
	"github.com/rochsolutions/ai-receptionist/internal/slots"
	"github.com/rochsolutions/ai-receptionist/pkg/logging"
)

// fakeCalendar scripts the external calendar for tests and records every
// mutation issued by the machine.
type fakeCalendar struct {
	busy    []slots.Busy
	busyErr error

	events  []Event
	listErr error

	createErr error
	patchErr  error
	deleteErr error

	created []Event
	patched []string
	deleted []string
}

func (f *fakeCalendar) QueryBusy(_ context.Context, _ string, _, _ time.Time) ([]slots.Busy, error) {
	return f.busy, f.busyErr
}

func (f *fakeCalendar) CreateEvent(_ context.Context, _ string, start, end time.Time, summary, description string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, Event{ID: "ev-new", Summary: summary, Description: description, Start: start, End: end})
	return "ev-new", nil
}

func (f *fakeCalendar) PatchEventTime(_ context.Context, _ string, eventID string, _, _ time.Time) error {
	if f.patchErr != nil {
		return f.patchErr
	}
	f.patched = append(f.patched, eventID)
	return nil
}

func (f *fakeCalendar) DeleteEvent(_ context.Context, _ string, eventID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, eventID)
	return nil
}

func (f *fakeCalendar) ListUpcoming(_ context.Context, _ string, _, _ int) ([]Event, error) {
	return f.events, f.listErr
}

// newTestMachine pins the clock to 08:00 on Monday 2 March 2026, London time,
// so slot generation is deterministic.
func newTestMachine(cal *fakeCalendar) *Machine {
	m := NewMachine(clinic.NewRegistry("demo"), cal, nil, logging.New("error"))
	loc, _ := time.LoadLocation("Europe/London")
	fixed := time.Date(2026, 3, 2, 8, 0, 0, 0, loc)
	m.now = func() time.Time { return fixed }
	return m
}

func turn(t *testing.T, m *Machine, sess *Session, utterance string) string {
	t.Helper()
	return m.HandleTurn(context.Background(), utterance, sess)
}

func TestEmptyUtteranceLeavesStateUnchanged(t *testing.T) {
	m := newTestMachine(&fakeCalendar{})

	for _, state := range []State{
		StateTriage, StateBookPatientType, StateBookName, StateBookPhone,
		StateBookReason, StateBookTimePref, StateBookConfirmSlot,
		StateReschChoice, StateReschName, StateReschPhone, StateCancelConfirm,
	} {
		sess := NewSession()
		sess.State = state
		reply := turn(t, m, sess, "   ")
		if sess.State != state {
			t.Errorf("state %v changed to %v on empty utterance", state, sess.State)
		}
		if reply == "" {
			t.Errorf("state %v: empty reply for empty utterance", state)
		}
	}
}

func TestTriageDispatch(t *testing.T) {
	m := newTestMachine(&fakeCalendar{})

	tests := []struct {
		utterance string
		wantState State
		wantIn    string
	}{
		{"I want to book an appointment", StateBookPatientType, "new or returning"},
		{"I need to reschedule", StateReschChoice, "reschedule or cancel"},
		{"what are your prices", StateTriage, "initial assessment"},
		{"can I talk to a person", StateTriage, "take a message"},
		{"blah blah", StateTriage, "booking, rescheduling, prices"},
	}
	for _, tt := range tests {
		sess := NewSession()
		reply := turn(t, m, sess, tt.utterance)
		if sess.State != tt.wantState {
			t.Errorf("%q: state = %v, want %v", tt.utterance, sess.State, tt.wantState)
		}
		if !strings.Contains(reply, tt.wantIn) {
			t.Errorf("%q: reply %q missing %q", tt.utterance, reply, tt.wantIn)
		}
	}
}

// The full booking happy path: seven turns ending in exactly
// one calendar create and a reset session.
func TestEndToEndBooking(t *testing.T) {
	cal := &fakeCalendar{}
	m := newTestMachine(cal)
	sess := NewSession()

	steps := []struct {
		say       string
		wantState State
		wantIn    string
	}{
		{"I want to book an appointment", StateBookPatientType, "new or returning"},
		{"new patient", StateBookName, "full name"},
		{"Jane Doe", StateBookPhone, "phone number"},
		{"07123456789", StateBookReason, "appointment for"},
		{"back pain", StateBookTimePref, "morning, afternoon, or evening"},
		{"morning", StateBookPickSlot, "Option 1"},
		{"2", StateBookConfirmSlot, "option 2"},
	}
	for i, st := range steps {
		reply := turn(t, m, sess, st.say)
		if sess.State != st.wantState {
			t.Fatalf("step %d (%q): state = %v, want %v (reply %q)", i, st.say, sess.State, st.wantState, reply)
		}
		if !strings.Contains(reply, st.wantIn) {
			t.Fatalf("step %d (%q): reply %q missing %q", i, st.say, reply, st.wantIn)
		}
	}

	if len(sess.OfferedSlots) == 0 || len(sess.OfferedSlots) > 3 {
		t.Fatalf("offered %d slots, want 1..3", len(sess.OfferedSlots))
	}
	if sess.SelectedSlot == nil || !sess.SelectedSlot.Equal(sess.OfferedSlots[1]) {
		t.Fatal("selected slot must be option 2 of the offered set")
	}

	reply := turn(t, m, sess, "yes")
	if !strings.Contains(reply, "booked in") {
		t.Errorf("confirmation reply: %q", reply)
	}
	if len(cal.created) != 1 {
		t.Fatalf("create calls = %d, want exactly 1", len(cal.created))
	}
	ev := cal.created[0]
	if !strings.Contains(ev.Description, "07123456789") || !strings.Contains(ev.Description, "Jane Doe") || !strings.Contains(ev.Description, "back pain") {
		t.Errorf("event description missing caller data: %q", ev.Description)
	}
	if sess.State != StateTriage || sess.Collected != (Collected{}) || sess.SelectedSlot != nil || len(sess.OfferedSlots) != 0 {
		t.Errorf("session not reset after commit: %+v", sess)
	}
}

// Morning preference at 08:00: all offered slots must fall inside 9-12.
func TestMorningPreferenceWindow(t *testing.T) {
	cal := &fakeCalendar{}
	m := newTestMachine(cal)
	sess := NewSession()
	sess.State = StateBookTimePref
	sess.Collected = Collected{Name: "Jane", Phone: "07123456789", Reason: "back pain"}

	turn(t, m, sess, "morning please")
	for _, s := range sess.OfferedSlots {
		h := s.Start.Hour()
		if h < 9 || h >= 12 {
			t.Errorf("morning offer outside 9-12: %v", s.Start)
		}
	}
}

// When the whole preference window is busy, the second pass over full working
// hours must still produce offers.
func TestPreferenceFallbackToFullHours(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/London")
	busyAllEvenings := []slots.Busy{}
	for day := 2; day <= 9; day++ {
		busyAllEvenings = append(busyAllEvenings, slots.Busy{
			Start: time.Date(2026, 3, day, 17, 0, 0, 0, loc),
			End:   time.Date(2026, 3, day, 20, 0, 0, 0, loc),
		})
	}
	cal := &fakeCalendar{busy: busyAllEvenings}
	m := newTestMachine(cal)
	sess := NewSession()
	sess.State = StateBookTimePref

	reply := turn(t, m, sess, "evening")
	if sess.State != StateBookPickSlot {
		t.Fatalf("state = %v, want BOOK_PICK_SLOT (reply %q)", sess.State, reply)
	}
	if len(sess.OfferedSlots) == 0 {
		t.Fatal("fallback pass offered nothing")
	}
	for _, s := range sess.OfferedSlots {
		if s.Start.Hour() >= 17 {
			t.Errorf("offered a busy evening slot: %v", s.Start)
		}
	}
}

func TestNoAvailabilityAfterFallback(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/London")
	cal := &fakeCalendar{busy: []slots.Busy{{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, loc),
		End:   time.Date(2026, 3, 20, 0, 0, 0, 0, loc),
	}}}
	m := newTestMachine(cal)
	sess := NewSession()
	sess.State = StateBookTimePref

	reply := turn(t, m, sess, "morning")
	if sess.State != StateTriage {
		t.Errorf("state = %v, want TRIAGE", sess.State)
	}
	if !strings.Contains(reply, "couldn't find any free appointments") {
		t.Errorf("reply: %q", reply)
	}
}

func TestCalendarOfflineDuringOffer(t *testing.T) {
	cal := &fakeCalendar{busyErr: errors.New("no stored credential")}
	m := newTestMachine(cal)
	sess := NewSession()
	sess.State = StateBookTimePref
	sess.Collected = Collected{Name: "Jane"}

	reply := turn(t, m, sess, "afternoon")
	if sess.State != StateTriage {
		t.Errorf("state = %v, want TRIAGE", sess.State)
	}
	if !strings.Contains(reply, "can't reach the appointment calendar") {
		t.Errorf("reply: %q", reply)
	}
}

func TestCreateFailureStillResets(t *testing.T) {
	cal := &fakeCalendar{createErr: errors.New("boom")}
	m := newTestMachine(cal)
	sess := NewSession()
	sess.State = StateBookConfirmSlot
	chosen := slots.Slot{Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), End: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)}
	sess.OfferedSlots = []slots.Slot{chosen}
	sess.SelectedSlot = &chosen
	sess.Collected = Collected{Name: "Jane", Phone: "07123456789"}

	reply := turn(t, m, sess, "yes")
	if sess.State != StateTriage || sess.SelectedSlot != nil {
		t.Errorf("session not reset after failed create: %+v", sess)
	}
	if !strings.Contains(reply, "can't reach the appointment calendar") {
		t.Errorf("reply: %q", reply)
	}
}

// Any non-affirmative answer at the confirmation step aborts the flow in one
// step with working data cleared.
func TestDeclineResetsInOneStep(t *testing.T) {
	for _, no := range []string{"no", "maybe", "xyz"} {
		cal := &fakeCalendar{}
		m := newTestMachine(cal)
		sess := NewSession()
		sess.State = StateBookConfirmSlot
		chosen := slots.Slot{Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), End: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)}
		sess.OfferedSlots = []slots.Slot{chosen}
		sess.SelectedSlot = &chosen
		sess.Collected = Collected{Name: "Jane"}

		turn(t, m, sess, no)
		if sess.State != StateTriage {
			t.Errorf("%q: state = %v, want TRIAGE", no, sess.State)
		}
		if sess.Collected != (Collected{}) {
			t.Errorf("%q: collected not cleared: %+v", no, sess.Collected)
		}
		if len(cal.created) != 0 {
			t.Errorf("%q: decline must not create events", no)
		}
	}
}

func TestPhoneValidation(t *testing.T) {
	m := newTestMachine(&fakeCalendar{})
	sess := NewSession()
	sess.State = StateBookPhone

	reply := turn(t, m, sess, "123")
	if sess.State != StateBookPhone {
		t.Errorf("short number advanced state to %v", sess.State)
	}
	if !strings.Contains(reply, "doesn't look right") {
		t.Errorf("reply: %q", reply)
	}

	turn(t, m, sess, "call me at 07123 456789")
	if sess.State != StateBookReason {
		t.Errorf("valid number did not advance: %v", sess.State)
	}
	if sess.Collected.Phone != "07123456789" {
		t.Errorf("digits: got %q, want 07123456789", sess.Collected.Phone)
	}
}

func TestRestartFromAnyState(t *testing.T) {
	m := newTestMachine(&fakeCalendar{})
	sess := NewSession()
	sess.State = StateBookReason
	sess.Collected = Collected{Name: "Jane", Phone: "07123456789"}

	reply := turn(t, m, sess, "let's start over")
	if sess.State != StateTriage || sess.Collected != (Collected{}) {
		t.Errorf("restart did not reset session: %+v", sess)
	}
	if !strings.Contains(reply, "start again") {
		t.Errorf("reply: %q", reply)
	}
}

func TestRepeatReissuesSlotPrompt(t *testing.T) {
	m := newTestMachine(&fakeCalendar{})
	sess := NewSession()
	sess.State = StateBookPickSlot
	sess.OfferedSlots = []slots.Slot{
		{Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), End: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)},
		{Start: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC), End: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)},
	}

	reply := turn(t, m, sess, "can you say that again")
	if sess.State != StateBookPickSlot {
		t.Errorf("repeat consumed state: %v", sess.State)
	}
	if !strings.Contains(reply, "Option 1") || !strings.Contains(reply, "Option 2") {
		t.Errorf("repeat did not re-read options: %q", reply)
	}
}

func TestSlotChoiceValidation(t *testing.T) {
	m := newTestMachine(&fakeCalendar{})
	sess := NewSession()
	sess.State = StateBookPickSlot
	sess.OfferedSlots = []slots.Slot{
		{Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), End: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)},
		{Start: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC), End: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)},
	}

	for _, bad := range []string{"5", "first one", "0"} {
		reply := turn(t, m, sess, bad)
		if sess.State != StateBookPickSlot {
			t.Errorf("%q advanced state to %v", bad, sess.State)
		}
		if !strings.Contains(reply, "1, 2 or 3") {
			t.Errorf("%q: reply %q", bad, reply)
		}
	}

	turn(t, m, sess, "number 1 please")
	if sess.State != StateBookConfirmSlot {
		t.Errorf("valid choice did not advance: %v", sess.State)
	}
	if sess.SelectedSlot == nil || !sess.SelectedSlot.Equal(sess.OfferedSlots[0]) {
		t.Error("selected slot must be offered option 1")
	}
}
