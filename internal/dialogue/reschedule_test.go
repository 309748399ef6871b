package dialogue

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rochsolutions/ai-receptionist/internal/slots"
)

func upcoming(loc *time.Location) []Event {
	return []Event{
		{
			ID:          "ev-other",
			Summary:     "Appointment: Bob",
			Description: "Name: Bob\nPhone: 07999888777",
			Start:       time.Date(2026, 3, 3, 10, 0, 0, 0, loc),
			End:         time.Date(2026, 3, 3, 10, 30, 0, 0, loc),
		},
		{
			ID:          "ev-jane",
			Summary:     "Appointment: Jane Doe",
			Description: "Name: Jane Doe\nPhone: 07123456789\nReason: back pain",
			Start:       time.Date(2026, 3, 4, 14, 0, 0, 0, loc),
			End:         time.Date(2026, 3, 4, 14, 30, 0, 0, loc),
		},
	}
}

func TestEndToEndReschedule(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/London")
	cal := &fakeCalendar{events: upcoming(loc)}
	m := newTestMachine(cal)
	sess := NewSession()

	steps := []struct {
		say       string
		wantState State
	}{
		{"I need to reschedule", StateReschChoice},
		{"reschedule please", StateReschName},
		{"Jane Doe", StateReschPhone},
		{"07123456789", StateReschPickSlot},
		{"1", StateReschConfirm},
	}
	for i, st := range steps {
		reply := turn(t, m, sess, st.say)
		if sess.State != st.wantState {
			t.Fatalf("step %d (%q): state = %v, want %v (reply %q)", i, st.say, sess.State, st.wantState, reply)
		}
	}
	if sess.PendingEventRef != "ev-jane" {
		t.Fatalf("pending event = %q, want ev-jane", sess.PendingEventRef)
	}

	reply := turn(t, m, sess, "yes")
	if !strings.Contains(reply, "moved to") {
		t.Errorf("reply: %q", reply)
	}
	if len(cal.patched) != 1 || cal.patched[0] != "ev-jane" {
		t.Fatalf("patched = %v, want exactly [ev-jane]", cal.patched)
	}
	if len(cal.created) != 0 || len(cal.deleted) != 0 {
		t.Error("reschedule must issue only a time patch")
	}
	if sess.State != StateTriage || sess.PendingEventRef != "" {
		t.Errorf("session not reset: %+v", sess)
	}
}

func TestEndToEndCancel(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/London")
	cal := &fakeCalendar{events: upcoming(loc)}
	m := newTestMachine(cal)
	sess := NewSession()

	turn(t, m, sess, "I want to cancel my session")
	turn(t, m, sess, "cancel it")
	turn(t, m, sess, "Jane Doe")
	reply := turn(t, m, sess, "my number is 07123456789")

	if sess.State != StateCancelConfirm {
		t.Fatalf("state = %v, want CANCEL_CONFIRM (reply %q)", sess.State, reply)
	}
	if !strings.Contains(reply, "cancel it") {
		t.Errorf("reply: %q", reply)
	}

	reply = turn(t, m, sess, "yes")
	if !strings.Contains(reply, "cancelled") {
		t.Errorf("reply: %q", reply)
	}
	if len(cal.deleted) != 1 || cal.deleted[0] != "ev-jane" {
		t.Fatalf("deleted = %v, want exactly [ev-jane]", cal.deleted)
	}
	if sess.State != StateTriage {
		t.Errorf("state = %v, want TRIAGE", sess.State)
	}
}

func TestCancelDeclineKeepsAppointment(t *testing.T) {
	cal := &fakeCalendar{}
	m := newTestMachine(cal)
	sess := NewSession()
	sess.State = StateCancelConfirm
	sess.PendingEventRef = "ev-jane"

	reply := turn(t, m, sess, "actually no")
	if len(cal.deleted) != 0 {
		t.Error("decline must not delete")
	}
	if sess.State != StateTriage || sess.PendingEventRef != "" {
		t.Errorf("session not reset: %+v", sess)
	}
	if !strings.Contains(reply, "kept your appointment") {
		t.Errorf("reply: %q", reply)
	}
}

// No upcoming event carries the caller's digits: guidance message, reset,
// zero mutations.
func TestRescheduleLookupMiss(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/London")
	cal := &fakeCalendar{events: upcoming(loc)}
	m := newTestMachine(cal)
	sess := NewSession()
	sess.State = StateReschPhone
	sess.Collected.Action = "reschedule"

	reply := turn(t, m, sess, "07000000000")
	if sess.State != StateTriage {
		t.Errorf("state = %v, want TRIAGE", sess.State)
	}
	if !strings.Contains(reply, "couldn't find an upcoming appointment") {
		t.Errorf("reply: %q", reply)
	}
	if len(cal.created)+len(cal.patched)+len(cal.deleted) != 0 {
		t.Error("lookup miss must issue zero mutations")
	}
}

func TestRescheduleListOffline(t *testing.T) {
	cal := &fakeCalendar{listErr: errors.New("timeout")}
	m := newTestMachine(cal)
	sess := NewSession()
	sess.State = StateReschPhone
	sess.Collected.Action = "cancel"

	reply := turn(t, m, sess, "07123456789")
	if sess.State != StateTriage {
		t.Errorf("state = %v, want TRIAGE", sess.State)
	}
	if !strings.Contains(reply, "can't reach the appointment calendar") {
		t.Errorf("reply: %q", reply)
	}
}

func TestReschChoiceReprompts(t *testing.T) {
	m := newTestMachine(&fakeCalendar{})
	sess := NewSession()
	sess.State = StateReschChoice

	reply := turn(t, m, sess, "hmm not sure")
	if sess.State != StateReschChoice {
		t.Errorf("unclear choice advanced state to %v", sess.State)
	}
	if !strings.Contains(reply, "reschedule the appointment, or cancel") {
		t.Errorf("reply: %q", reply)
	}
}

func TestPatchFailureStillResets(t *testing.T) {
	cal := &fakeCalendar{patchErr: errors.New("boom")}
	m := newTestMachine(cal)
	sess := NewSession()
	sess.State = StateReschConfirm
	sess.PendingEventRef = "ev-jane"
	chosen := slots.Slot{
		Start: time.Date(2026, 3, 5, 11, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 5, 11, 30, 0, 0, time.UTC),
	}
	sess.OfferedSlots = []slots.Slot{chosen}
	sess.SelectedSlot = &chosen

	reply := turn(t, m, sess, "yes")
	if sess.State != StateTriage || sess.PendingEventRef != "" {
		t.Errorf("session not reset after failed patch: %+v", sess)
	}
	if !strings.Contains(reply, "can't reach the appointment calendar") {
		t.Errorf("reply: %q", reply)
	}
}
