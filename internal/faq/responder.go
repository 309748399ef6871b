// Package faq composes canned spoken answers for informational intents from
// clinic profile fields.
package faq

import (
	"fmt"
	"strings"

	"github.com/rochsolutions/ai-receptionist/internal/clinic"
	"github.com/rochsolutions/ai-receptionist/internal/intent"
)

// Answer returns a spoken reply for an informational intent. The raw text is
// sniffed for sub-cases (weekend vs evening hours, parking vs accessibility)
// to pick among variants. Pure function: no session mutation, no I/O.
func Answer(label intent.Label, rawText string, p clinic.Profile) string {
	t := intent.Normalize(rawText)

	switch label {
	case intent.LabelPrices:
		return answerPrices(t, p)
	case intent.LabelHours:
		return answerHours(t, p)
	case intent.LabelLocation:
		return answerLocation(t, p)
	case intent.LabelInsurance:
		return answerInsurance(p)
	case intent.LabelServices:
		return answerServices(p)
	case intent.LabelConditions:
		return answerConditions(p)
	case intent.LabelReferral:
		return "You don't need a GP referral to book with us, although some insurers ask for one before they'll cover treatment. If you're claiming, it's worth checking your policy first."
	case intent.LabelFirstVisit:
		return fmt.Sprintf("For your first visit, please bring %s Your first appointment includes an assessment, so allow a little extra time.", strings.TrimSpace(p.WhatToBring))
	case intent.LabelPolicies:
		return p.CancellationPolicy + " If you need to change an appointment, just call us and we'll sort it out."
	case intent.LabelPrivacy:
		return "Your details are only used to manage your appointments and treatment, and are never shared outside the clinic without your consent."
	}
	return "I can help with booking, rescheduling, prices, or opening hours. What would you like to do?"
}

func answerPrices(t string, p clinic.Profile) string {
	switch {
	case strings.Contains(t, "follow"):
		return fmt.Sprintf("%s Follow-ups are the lower end of that range. Would you like to book one in?", p.PricingSummary)
	case strings.Contains(t, "initial"), strings.Contains(t, "first"), strings.Contains(t, "assessment"):
		return fmt.Sprintf("%s An initial assessment is the longer first appointment. Would you like to book one in?", p.PricingSummary)
	}
	return fmt.Sprintf("%s Is it for an initial assessment or a follow up?", p.PricingSummary)
}

func answerHours(t string, p clinic.Profile) string {
	switch {
	case strings.Contains(t, "weekend"), strings.Contains(t, "saturday"), strings.Contains(t, "sunday"):
		if p.WorkingHours.Saturday == nil && p.WorkingHours.Sunday == nil {
			return fmt.Sprintf("We're closed at weekends. Our usual hours are %s.", p.HoursSummary)
		}
		return fmt.Sprintf("We do open some weekend hours. Our usual hours are %s.", p.HoursSummary)
	case strings.Contains(t, "evening"), strings.Contains(t, "late"), strings.Contains(t, "after work"):
		_, close := p.WorkingHours.Span()
		return fmt.Sprintf("Our last appointments run up to %d:00. Our usual hours are %s.", close, p.HoursSummary)
	}
	return fmt.Sprintf("We're open %s.", p.HoursSummary)
}

func answerLocation(t string, p clinic.Profile) string {
	switch {
	case strings.Contains(t, "parking"), strings.Contains(t, "park"):
		return p.Parking
	case strings.Contains(t, "accessible"), strings.Contains(t, "wheelchair"), strings.Contains(t, "step"):
		return fmt.Sprintf("The clinic has step-free access. We're at %s.", p.Address)
	}
	return fmt.Sprintf("We're at %s. %s", p.Address, p.Parking)
}

func answerInsurance(p clinic.Profile) string {
	insurers := strings.Join(p.CommonInsurers, ", ")
	if insurers == "" {
		return p.InsuranceNote
	}
	return fmt.Sprintf("%s Patients commonly claim with %s.", p.InsuranceNote, insurers)
}

func answerServices(p clinic.Profile) string {
	if len(p.Services) == 0 {
		return "We offer a range of physiotherapy and rehabilitation services. Would you like to book an assessment?"
	}
	return fmt.Sprintf("We offer %s. Would you like to book an appointment?", strings.Join(p.Services, ", "))
}

func answerConditions(p clinic.Profile) string {
	return fmt.Sprintf("We treat most muscle and joint problems, including back and neck pain, sports injuries and post-surgery rehab, at %s. An initial assessment is the best starting point. Shall I book you in?", p.DisplayName)
}
