package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/rochsolutions/ai-receptionist/internal/slots"
)

func (m *Machine) handleBookPatientType(norm string, sess *Session) string {
	switch {
	case strings.Contains(norm, "new"):
		sess.Collected.PatientType = "new"
	case strings.Contains(norm, "return"), strings.Contains(norm, "existing"), strings.Contains(norm, "before"):
		sess.Collected.PatientType = "returning"
	default:
		sess.Collected.PatientType = norm
	}
	sess.State = StateBookName
	return promptName
}

// handleName stores the caller's name as spoken and advances. Shared between
// the booking and reschedule flows.
func (m *Machine) handleName(utterance string, sess *Session, next State, prompt string) string {
	sess.Collected.Name = strings.TrimSpace(utterance)
	sess.State = next
	return prompt
}

// handlePhone validates the phone field: 10 to 15 digits once everything
// else is stripped. Invalid input re-prompts without advancing.
func (m *Machine) handlePhone(utterance string, sess *Session, next State, prompt string) string {
	digits := digitsOf(utterance)
	if !validPhoneDigits(digits) {
		return replyBadPhone
	}
	sess.Collected.Phone = digits
	sess.State = next
	return prompt
}

func (m *Machine) handleBookReason(utterance string, sess *Session) string {
	sess.Collected.Reason = strings.TrimSpace(utterance)
	sess.State = StateBookTimePref
	return promptTimePref
}

func (m *Machine) handleBookTimePref(ctx context.Context, norm string, sess *Session) string {
	sess.Collected.TimePref = norm
	sess.State = StateBookOfferSlots
	return m.offerSlots(ctx, sess)
}

// offerSlots queries busy time and runs the availability engine, honouring
// the caller's time-of-day preference with a full-hours second pass. Zero
// availability or a calendar failure exits the flow back to triage.
func (m *Machine) offerSlots(ctx context.Context, sess *Session) string {
	prof := m.profile(sess)
	loc := prof.Location()
	windowStart := m.now().In(loc)
	windowEnd := windowStart.AddDate(0, 0, prof.DaysAhead)

	busy, err := m.cal.QueryBusy(ctx, prof.CalendarID, windowStart, windowEnd)
	if err != nil {
		m.logger.Warn("calendar busy query failed", "error", err, "clinic", prof.ID)
		sess.ResetFlow()
		return replyOffline
	}

	fullOpen, fullClose := prof.WorkingHours.Span()
	var free []slots.Slot
	if pref, ok := slots.PreferenceWindow(sess.Collected.TimePref); ok {
		// Clip the preference to the clinic's working hours so the narrow
		// pass never offers slots the clinic can't honour.
		pref.StartHour = max(pref.StartHour, fullOpen)
		pref.EndHour = min(pref.EndHour, fullClose)
		free = slots.SuggestPreferred(windowStart, windowEnd, prof.SlotMinutes, pref, fullOpen, fullClose, busy)
	} else {
		free = slots.Suggest(windowStart, windowEnd, prof.SlotMinutes, fullOpen, fullClose, busy)
	}
	free = slots.Take(free, offerLimit)

	if len(free) == 0 {
		sess.ResetFlow()
		return replyNoSlots
	}

	sess.OfferedSlots = free
	sess.SelectedSlot = nil
	if sess.State == StateReschOfferSlots {
		sess.State = StateReschPickSlot
	} else {
		sess.State = StateBookPickSlot
	}
	return m.slotPrompt(sess)
}

// handlePickSlot resolves a numeric choice against the offered slots. The
// selection is always an element of the slots read out this offer round.
func (m *Machine) handlePickSlot(norm string, sess *Session, next State, confirmQuestion string) string {
	n, ok := pickDigit(norm, len(sess.OfferedSlots))
	if !ok {
		return replyBadSlotChoice
	}
	chosen := sess.OfferedSlots[n-1]
	sess.SelectedSlot = &chosen
	sess.State = next
	return fmt.Sprintf("You picked option %d: %s. %s Please say yes or no.", n, chosen.Format(), confirmQuestion)
}

// handleBookConfirm performs the single calendar mutation for the booking
// flow. Whatever happens, working data is cleared and the machine returns to
// triage; failure is reported in the reply, never by a half-completed flow.
func (m *Machine) handleBookConfirm(ctx context.Context, norm string, sess *Session) string {
	if !isAffirmative(norm) {
		sess.ResetFlow()
		return replyDeclined
	}
	chosen := sess.SelectedSlot
	if chosen == nil {
		sess.ResetFlow()
		return replyMenu
	}

	prof := m.profile(sess)
	summary := "Appointment: " + sess.Collected.Name
	desc := eventDescription(sess.Collected)

	spoken := chosen.Format()
	_, err := m.cal.CreateEvent(ctx, prof.CalendarID, chosen.Start, chosen.End, summary, desc)
	sess.ResetFlow()
	if err != nil {
		m.logger.Warn("calendar create failed", "error", err, "clinic", prof.ID)
		return replyOffline
	}
	return fmt.Sprintf("You're booked in for %s at %s. See you then!", spoken, prof.DisplayName)
}

// eventDescription embeds the collected fields so a later reschedule or
// cancel can find the event by the caller's phone digits.
func eventDescription(c Collected) string {
	lines := []string{
		"Name: " + c.Name,
		"Phone: " + c.Phone,
		"Reason: " + c.Reason,
		"Patient type: " + c.PatientType,
		"Preference: " + c.TimePref,
		"Booked by: AI receptionist",
	}
	return strings.Join(lines, "\n")
}
