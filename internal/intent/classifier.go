// Package intent maps free-text caller utterances to discrete intent labels
// using deterministic keyword rules.
package intent

import "strings"

// Label identifies what the caller is asking for.
type Label string

const (
	LabelBook Label = "BOOK"
	// LabelReschedule covers both rescheduling and cancelling; the dialogue
	// layer asks which one inside the flow.
	LabelReschedule Label = "RESCHEDULE"
	LabelPrices     Label = "FAQ_PRICES"
	LabelHours      Label = "FAQ_HOURS"
	LabelLocation   Label = "FAQ_LOCATION"
	LabelInsurance  Label = "FAQ_INSURANCE"
	LabelServices   Label = "FAQ_SERVICES"
	LabelConditions Label = "FAQ_CONDITIONS"
	LabelReferral   Label = "FAQ_REFERRAL"
	LabelFirstVisit Label = "FAQ_FIRST_VISIT"
	LabelPolicies   Label = "FAQ_POLICIES"
	LabelPrivacy    Label = "FAQ_PRIVACY"
	LabelHuman      Label = "HUMAN"
	LabelOther      Label = "OTHER"
	LabelUnknown    Label = "UNKNOWN"
)

// rule pairs a label with the keywords that trigger it. Matching is substring
// containment over the normalized utterance.
type rule struct {
	label    Label
	keywords []string
}

// rules is evaluated top to bottom and the first match wins, so the slice is
// a precedence list: booking beats any FAQ keyword in the same utterance.
// Order must not be changed casually.
var rules = []rule{
	// "schedule" is deliberately absent from the booking keywords: as a
	// substring it would swallow "reschedule" before the next rule ran.
	{LabelBook, []string{"book", "appointment", "available", "availability", "slot"}},
	{LabelReschedule, []string{"reschedule", "rearrange", "change my", "move my", "cancel", "cancellation"}},
	{LabelPrices, []string{"price", "cost", "fee", "how much", "charge", "expensive"}},
	{LabelHours, []string{"hours", "open", "close", "opening", "closing", "weekend", "evening"}},
	{LabelLocation, []string{"address", "location", "where are you", "parking", "directions", "how do i get"}},
	{LabelInsurance, []string{"insurance", "insurer", "insured", "bupa", "axa", "vitality", "covered", "claim"}},
	{LabelServices, []string{"service", "treatment", "physio", "massage", "rehab", "what do you do", "what do you offer"}},
	{LabelConditions, []string{"back pain", "neck pain", "knee", "shoulder", "injury", "sciatica", "sprain", "can you treat", "do you treat"}},
	{LabelReferral, []string{"referral", "refer", "gp letter", "doctor's note", "doctors note"}},
	{LabelFirstVisit, []string{"first visit", "first appointment", "first time", "what to bring", "what should i bring", "what to wear"}},
	{LabelPolicies, []string{"policy", "policies", "late", "notice", "no show", "no-show"}},
	{LabelPrivacy, []string{"privacy", "gdpr", "my data", "confidential", "records"}},
	{LabelHuman, []string{"human", "person", "receptionist", "someone", "speak to", "talk to", "real"}},
}

// Normalize lowercases and collapses runs of whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Classify maps an utterance to a label. Empty or whitespace-only input is
// UNKNOWN; text matching no rule is OTHER. Stateless with no side effects.
func Classify(text string) Label {
	t := Normalize(text)
	if t == "" {
		return LabelUnknown
	}
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(t, kw) {
				return r.label
			}
		}
	}
	return LabelOther
}

// IsFAQ reports whether the label is one of the informational intents the
// FAQ responder can answer.
func (l Label) IsFAQ() bool {
	switch l {
	case LabelPrices, LabelHours, LabelLocation, LabelInsurance, LabelServices,
		LabelConditions, LabelReferral, LabelFirstVisit, LabelPolicies, LabelPrivacy:
		return true
	}
	return false
}
