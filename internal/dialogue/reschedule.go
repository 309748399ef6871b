package dialogue

import (
	"context"
	"fmt"
	"strings"
)

func (m *Machine) handleReschChoice(norm string, sess *Session) string {
	switch {
	case strings.Contains(norm, "cancel"):
		sess.Collected.Action = "cancel"
	case strings.Contains(norm, "resched"), strings.Contains(norm, "change"), strings.Contains(norm, "move"):
		sess.Collected.Action = "reschedule"
	default:
		return promptReschChoiceRe
	}
	sess.State = StateReschName
	return promptReschName
}

func (m *Machine) handleReschPhone(ctx context.Context, utterance string, sess *Session) string {
	digits := digitsOf(utterance)
	if !validPhoneDigits(digits) {
		return replyBadPhone
	}
	sess.Collected.Phone = digits
	sess.State = StateReschFind
	return m.findAppointment(ctx, sess)
}

// findAppointment scans upcoming events for one whose description carries the
// caller's phone digits; first match wins. Matching by embedded digits is
// demo-level identity. A miss is a normal outcome, not an error.
func (m *Machine) findAppointment(ctx context.Context, sess *Session) string {
	prof := m.profile(sess)

	events, err := m.cal.ListUpcoming(ctx, prof.CalendarID, reschHorizonDays, reschMaxEvents)
	if err != nil {
		m.logger.Warn("calendar list failed", "error", err, "clinic", prof.ID)
		sess.ResetFlow()
		return replyOffline
	}

	for _, ev := range events {
		if strings.Contains(ev.Description, sess.Collected.Phone) {
			sess.PendingEventRef = ev.ID
			when := ev.Start.In(prof.Location()).Format("Mon 02 Jan at 15:04")
			if sess.Collected.Action == "cancel" {
				sess.State = StateCancelConfirm
				return fmt.Sprintf("I found your appointment on %s. Would you like me to cancel it? Please say yes or no.", when)
			}
			sess.State = StateReschOfferSlots
			return fmt.Sprintf("I found your appointment on %s. Let's find a new time. %s", when, m.offerSlots(ctx, sess))
		}
	}

	sess.ResetFlow()
	return replyLookupMiss
}

// handleReschConfirm issues the single time-patch mutation, then always
// returns to triage with working data cleared.
func (m *Machine) handleReschConfirm(ctx context.Context, norm string, sess *Session) string {
	if !isAffirmative(norm) {
		sess.ResetFlow()
		return replyDeclined
	}
	chosen := sess.SelectedSlot
	eventRef := sess.PendingEventRef
	if chosen == nil || eventRef == "" {
		sess.ResetFlow()
		return replyMenu
	}

	prof := m.profile(sess)
	spoken := chosen.Format()
	err := m.cal.PatchEventTime(ctx, prof.CalendarID, eventRef, chosen.Start, chosen.End)
	sess.ResetFlow()
	if err != nil {
		m.logger.Warn("calendar patch failed", "error", err, "clinic", prof.ID)
		return replyOffline
	}
	return fmt.Sprintf("Done. Your appointment has been moved to %s.", spoken)
}

// handleCancelConfirm issues the single delete mutation, then always returns
// to triage with working data cleared.
func (m *Machine) handleCancelConfirm(ctx context.Context, norm string, sess *Session) string {
	if !isAffirmative(norm) {
		sess.ResetFlow()
		return "Okay, I've kept your appointment as it was. Is there anything else I can help with?"
	}
	eventRef := sess.PendingEventRef
	if eventRef == "" {
		sess.ResetFlow()
		return replyMenu
	}

	prof := m.profile(sess)
	err := m.cal.DeleteEvent(ctx, prof.CalendarID, eventRef)
	sess.ResetFlow()
	if err != nil {
		m.logger.Warn("calendar delete failed", "error", err, "clinic", prof.ID)
		return replyOffline
	}
	return "Your appointment has been cancelled. " + prof.CancellationPolicy
}
