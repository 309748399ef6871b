// Package clinic provides per-tenant clinic configuration and the static
// registry the dialogue layer looks profiles up in.
package clinic

import (
	"encoding/json"
	"fmt"
	"time"
)

// DayHours represents the opening hours for a single day.
// Nil means the clinic is closed that day.
type DayHours struct {
	Open  int `json:"open"`  // hour, 24h clock
	Close int `json:"close"` // hour, 24h clock
}

// WeekHours maps day names to their hours.
type WeekHours struct {
	Monday    *DayHours `json:"monday,omitempty"`
	Tuesday   *DayHours `json:"tuesday,omitempty"`
	Wednesday *DayHours `json:"wednesday,omitempty"`
	Thursday  *DayHours `json:"thursday,omitempty"`
	Friday    *DayHours `json:"friday,omitempty"`
	Saturday  *DayHours `json:"saturday,omitempty"`
	Sunday    *DayHours `json:"sunday,omitempty"`
}

// For returns the hours for the given weekday, or nil when closed.
func (w WeekHours) For(day time.Weekday) *DayHours {
	switch day {
	case time.Monday:
		return w.Monday
	case time.Tuesday:
		return w.Tuesday
	case time.Wednesday:
		return w.Wednesday
	case time.Thursday:
		return w.Thursday
	case time.Friday:
		return w.Friday
	case time.Saturday:
		return w.Saturday
	default:
		return w.Sunday
	}
}

// Span returns the earliest open hour and latest close hour across the week.
// Used as the full-hours window when a caller's time-of-day preference turns
// up nothing.
func (w WeekHours) Span() (open, close int) {
	open, close = 0, 0
	first := true
	for d := time.Sunday; d <= time.Saturday; d++ {
		h := w.For(d)
		if h == nil {
			continue
		}
		if first || h.Open < open {
			open = h.Open
		}
		if first || h.Close > close {
			close = h.Close
		}
		first = false
	}
	if first {
		return 9, 18
	}
	return open, close
}

// Profile holds clinic-specific configuration. Profiles are immutable once
// registered; the dialogue layer only ever reads them.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Timezone    string `json:"timezone"`    // e.g. "Europe/London"
	CalendarID  string `json:"calendar_id"` // Google Calendar ID, "primary" for demo

	// Booking rules
	SlotMinutes  int       `json:"slot_minutes"`
	DaysAhead    int       `json:"days_ahead"`
	WorkingHours WeekHours `json:"working_hours"`

	// FAQ / info
	Address        string   `json:"address,omitempty"`
	Parking        string   `json:"parking,omitempty"`
	HoursSummary   string   `json:"hours_summary,omitempty"`
	PricingSummary string   `json:"pricing_summary,omitempty"`
	Services       []string `json:"services,omitempty"`
	InsuranceNote  string   `json:"insurance_note,omitempty"`
	CommonInsurers []string `json:"common_insurers,omitempty"`

	// Policies
	CancellationPolicy string `json:"cancellation_policy,omitempty"`
	WhatToBring        string `json:"what_to_bring,omitempty"`
}

// Location resolves the profile's timezone, falling back to UTC if the name
// is unknown.
func (p Profile) Location() *time.Location {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// weekdayHours is Mon-Fri 9-18, the demo clinic's schedule.
func weekdayHours() WeekHours {
	open := func() *DayHours { return &DayHours{Open: 9, Close: 18} }
	return WeekHours{
		Monday:    open(),
		Tuesday:   open(),
		Wednesday: open(),
		Thursday:  open(),
		Friday:    open(),
	}
}

// DefaultProfile is the single-clinic fallback used when a session carries no
// active clinic or an unknown one.
func DefaultProfile() Profile {
	return Profile{
		ID:           "demo",
		DisplayName:  "RochSolutions Clinic (Demo)",
		Timezone:     "Europe/London",
		CalendarID:   "primary",
		SlotMinutes:  30,
		DaysAhead:    7,
		WorkingHours: weekdayHours(),

		Address:        "12 High Street, London",
		Parking:        "Free parking is available behind the building, with step-free access from the car park.",
		HoursSummary:   "Monday to Friday, 9am to 6pm",
		PricingSummary: "Initial assessments are 50 to 90 pounds, follow-ups 40 to 75 pounds, depending on the appointment type.",
		Services:       []string{"Physiotherapy", "Sports therapy", "MSK rehab", "Injury assessment"},
		InsuranceNote:  "We provide receipts for insurance claims; coverage depends on your policy.",
		CommonInsurers: []string{"Bupa", "AXA Health", "Vitality", "Aviva", "WPA", "Cigna", "Simplyhealth"},

		CancellationPolicy: "Please give 24 hours notice to avoid late cancellation fees.",
		WhatToBring:        "Photo ID, any scans or reports you have, and comfortable clothing.",
	}
}

// Registry is a read-only set of clinic profiles keyed by clinic ID.
type Registry struct {
	profiles  map[string]Profile
	defaultID string
}

// NewRegistry builds a registry containing only the default profile.
func NewRegistry(defaultID string) *Registry {
	p := DefaultProfile()
	if defaultID == "" {
		defaultID = p.ID
	}
	p.ID = defaultID
	return &Registry{
		profiles:  map[string]Profile{defaultID: p},
		defaultID: defaultID,
	}
}

// LoadRegistry parses a JSON object of clinic ID -> profile and merges it over
// the defaults. Profiles missing booking rules inherit the demo values.
func LoadRegistry(defaultID, registryJSON string) (*Registry, error) {
	r := NewRegistry(defaultID)
	if registryJSON == "" {
		return r, nil
	}
	var raw map[string]Profile
	if err := json.Unmarshal([]byte(registryJSON), &raw); err != nil {
		return nil, fmt.Errorf("clinic registry: parse: %w", err)
	}
	for id, p := range raw {
		p.ID = id
		if p.SlotMinutes <= 0 {
			p.SlotMinutes = 30
		}
		if p.DaysAhead <= 0 {
			p.DaysAhead = 7
		}
		if p.Timezone == "" {
			p.Timezone = "Europe/London"
		}
		if p.CalendarID == "" {
			p.CalendarID = "primary"
		}
		r.profiles[id] = p
	}
	return r, nil
}

// Profile looks up a clinic by ID, falling back to the default profile when
// the ID is empty or unknown.
func (r *Registry) Profile(id string) Profile {
	if id != "" {
		if p, ok := r.profiles[id]; ok {
			return p
		}
	}
	return r.profiles[r.defaultID]
}
