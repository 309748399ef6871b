package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rochsolutions/ai-receptionist/internal/clinic"
	"github.com/rochsolutions/ai-receptionist/internal/faq"
	"github.com/rochsolutions/ai-receptionist/internal/intent"
	"github.com/rochsolutions/ai-receptionist/internal/observability/metrics"
	"github.com/rochsolutions/ai-receptionist/pkg/logging"
)

const (
	// offerLimit caps how many slots are read out per offer.
	offerLimit = 3
	// reschHorizonDays bounds the upcoming-event search for reschedule/cancel.
	reschHorizonDays = 30
	// reschMaxEvents caps how many upcoming events the lookup scans.
	reschMaxEvents = 50
)

const (
	replyMenu           = "I can help with booking, rescheduling, prices, or opening hours. What would you like to do?"
	replyOffline        = "I'm sorry, I can't reach the appointment calendar right now. Please try again in a few minutes, or leave a message and we'll call you back."
	replyNoSlots        = "I'm sorry, I couldn't find any free appointments in the next few days. I can take a message and have the clinic call you back to arrange a time."
	replyHuman          = "Okay. I can take a message and have the clinic call you back. Please say your name and number."
	replyBadPhone       = "That phone number doesn't look right. Please say it again, including the area code."
	replyBadSlotChoice  = "Sorry, I didn't catch which option you wanted. Please say 1, 2 or 3."
	replyLookupMiss     = "I couldn't find an upcoming appointment under that phone number. Please call the clinic directly and the team will sort it out."
	replyDeclined       = "No problem, I've not changed anything. Is there anything else I can help with?"
	replyRestart        = "Okay, let's start again. " + replyMenu
	promptPatientType   = "Sure. I can help you book an appointment. Are you a new or returning patient?"
	promptName          = "Thanks. What's your full name?"
	promptPhone         = "And what's the best phone number to reach you on?"
	promptReason        = "Got it. What is the appointment for?"
	promptTimePref      = "Do you prefer morning, afternoon, or evening appointments?"
	promptReschChoice   = "No problem. Do you want to reschedule or cancel an existing appointment?"
	promptReschName     = "Okay. What's your full name?"
	promptReschPhone    = "And the phone number you booked with?"
	promptReschChoiceRe = "Sorry, would you like to reschedule the appointment, or cancel it?"
)

// Machine drives one dialogue turn at a time. It owns no session storage:
// callers load the session, run HandleTurn, and persist the result. A single
// Machine is safe for concurrent use across calls since all per-call state
// lives in the Session.
type Machine struct {
	clinics *clinic.Registry
	cal     Calendar
	metrics *metrics.DialogueMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewMachine wires the dialogue machine to its collaborators. metrics may be
// nil.
func NewMachine(clinics *clinic.Registry, cal Calendar, m *metrics.DialogueMetrics, logger *logging.Logger) *Machine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Machine{
		clinics: clinics,
		cal:     cal,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// HandleTurn processes one caller utterance against the session and returns
// the spoken reply. The session is mutated in place; every path leaves it in
// a valid state, falling back to triage on any flow exit.
func (m *Machine) HandleTurn(ctx context.Context, utterance string, sess *Session) string {
	started := time.Now()
	stateBefore := sess.State

	norm := intent.Normalize(utterance)
	reply := m.dispatch(ctx, utterance, norm, sess)

	m.metrics.ObserveTurn(string(stateBefore), string(sess.Intent), time.Since(started).Seconds())
	m.logger.Info("dialogue turn",
		"state_before", stateBefore,
		"state_after", sess.State,
		"intent", sess.Intent,
	)
	return reply
}

func (m *Machine) dispatch(ctx context.Context, utterance, norm string, sess *Session) string {
	if norm == "" {
		return m.reprompt(sess)
	}

	// Global commands run before any state handling.
	if isRestart(norm) {
		sess.ResetFlow()
		return replyRestart
	}
	if isRepeat(norm) && (sess.State == StateBookPickSlot || sess.State == StateReschPickSlot) {
		return m.slotPrompt(sess)
	}

	switch sess.State {
	case StateTriage:
		return m.handleTriage(utterance, sess)
	case StateBookPatientType:
		return m.handleBookPatientType(norm, sess)
	case StateBookName:
		return m.handleName(utterance, sess, StateBookPhone, promptPhone)
	case StateBookPhone:
		return m.handlePhone(utterance, sess, StateBookReason, promptReason)
	case StateBookReason:
		return m.handleBookReason(utterance, sess)
	case StateBookTimePref:
		return m.handleBookTimePref(ctx, norm, sess)
	case StateBookOfferSlots:
		return m.offerSlots(ctx, sess)
	case StateBookPickSlot:
		return m.handlePickSlot(norm, sess, StateBookConfirmSlot, "Shall I book it?")
	case StateBookConfirmSlot:
		return m.handleBookConfirm(ctx, norm, sess)
	case StateReschChoice:
		return m.handleReschChoice(norm, sess)
	case StateReschName:
		return m.handleName(utterance, sess, StateReschPhone, promptReschPhone)
	case StateReschPhone:
		return m.handleReschPhone(ctx, utterance, sess)
	case StateReschFind:
		return m.findAppointment(ctx, sess)
	case StateReschOfferSlots:
		return m.offerSlots(ctx, sess)
	case StateReschPickSlot:
		return m.handlePickSlot(norm, sess, StateReschConfirm, "Shall I move your appointment to it?")
	case StateReschConfirm:
		return m.handleReschConfirm(ctx, norm, sess)
	case StateCancelConfirm:
		return m.handleCancelConfirm(ctx, norm, sess)
	}

	// Unknown persisted state, e.g. from an older session format.
	m.logger.Warn("unknown session state, resetting", "state", sess.State)
	sess.ResetFlow()
	return replyMenu
}

// reprompt re-issues the question for the current state without consuming it.
func (m *Machine) reprompt(sess *Session) string {
	switch sess.State {
	case StateBookPatientType:
		return promptPatientType
	case StateBookName:
		return promptName
	case StateReschName:
		return promptReschName
	case StateBookPhone:
		return promptPhone
	case StateReschPhone:
		return promptReschPhone
	case StateBookReason:
		return promptReason
	case StateBookTimePref:
		return promptTimePref
	case StateBookPickSlot, StateReschPickSlot:
		return m.slotPrompt(sess)
	case StateBookConfirmSlot, StateReschConfirm, StateCancelConfirm:
		return "Sorry, was that a yes or a no?"
	case StateReschChoice:
		return promptReschChoiceRe
	}
	return "I didn't catch that. Please tell me what you need help with."
}

func (m *Machine) handleTriage(utterance string, sess *Session) string {
	label := intent.Classify(utterance)
	sess.Intent = label
	prof := m.clinics.Profile(sess.ActiveClinic)

	switch {
	case label == intent.LabelBook:
		sess.Collected = Collected{}
		sess.State = StateBookPatientType
		return promptPatientType
	case label == intent.LabelReschedule:
		sess.Collected = Collected{}
		sess.State = StateReschChoice
		return promptReschChoice
	case label.IsFAQ():
		return faq.Answer(label, utterance, prof)
	case label == intent.LabelHuman:
		return replyHuman
	}
	return replyMenu
}

func (m *Machine) profile(sess *Session) clinic.Profile {
	return m.clinics.Profile(sess.ActiveClinic)
}

// Greeting is the opening line for a new call.
func (m *Machine) Greeting(sess *Session) string {
	prof := m.profile(sess)
	return fmt.Sprintf("Hello, you've reached %s. %s", prof.DisplayName, replyMenu)
}

// slotPrompt reads out the currently offered slots as numbered options.
func (m *Machine) slotPrompt(sess *Session) string {
	if len(sess.OfferedSlots) == 0 {
		return replyMenu
	}
	var b strings.Builder
	b.WriteString("Here's what I have. ")
	for i, s := range sess.OfferedSlots {
		fmt.Fprintf(&b, "Option %d: %s. ", i+1, s.Format())
	}
	b.WriteString("Which option would you like? Say 1, 2 or 3.")
	return b.String()
}
