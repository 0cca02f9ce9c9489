// Package knowledge holds the static district knowledge base: FAQ entries
// matched by keyword, the context snapshot handed to generation, business
// hours, and emergency contacts.
package knowledge

import (
	"fmt"
	"strings"
	"time"
)

type faqEntry struct {
	keywords []string // all of these must appear for a confident match
	answer   string
	priority int // higher wins when several entries match
}

// District is the knowledge collaborator for one municipal utility district.
type District struct {
	Name    string
	Phone   string
	Address string
	Website string

	emergencyPhone string
	emergencyHours string

	entries  []faqEntry
	snapshot string
}

// NewBrushyCreek loads the built-in Brushy Creek MUD knowledge base.
func NewBrushyCreek() *District {
	d := &District{
		Name:           "Brushy Creek Municipal Utility District",
		Phone:          "(512) 255-7871",
		Address:        "16318 Great Oaks Drive, Round Rock, TX 78681",
		Website:        "bcmud.org",
		emergencyPhone: "(512) 255-7871 ext. 508",
		emergencyHours: "Monday-Friday 6pm-8am, weekends anytime, holidays",
	}
	d.entries = brushyCreekEntries(d)
	d.snapshot = buildSnapshot(d)
	return d
}

func brushyCreekEntries(d *District) []faqEntry {
	return []faqEntry{
		{
			keywords: []string{"water", "emergency"},
			answer:   fmt.Sprintf("Water emergency? Call %s immediately. Available %s.", d.emergencyPhone, d.emergencyHours),
			priority: 10,
		},
		{
			keywords: []string{"water", "rate"},
			answer:   "Water rates: $20 base fee plus $3.50 to $4.70 per thousand gallons, seasonal.",
		},
		{
			keywords: []string{"water", "cloudy"},
			answer:   "Cloudy water is usually air bubbles and harmless. It clears in a few minutes.",
		},
		{
			keywords: []string{"sewer", "rate"},
			answer:   "Sewer: $9 base plus $3.20 per thousand gallons, based on your winter average.",
		},
		{
			keywords: []string{"trash"},
			answer:   "Garbage is picked up weekly, recycling every other week. $24.03 monthly covers both carts.",
		},
		{
			keywords: []string{"garbage"},
			answer:   "Garbage is picked up weekly, recycling every other week. $24.03 monthly covers both carts.",
		},
		{
			keywords: []string{"recycling"},
			answer:   "Recycling runs every other week in the tan cart. Plastics 1-7, cans, cardboard, paper. No glass or styrofoam.",
		},
		{
			keywords: []string{"community center", "hours"},
			answer:   "Community Center: Monday-Friday 5:30am-9pm, Saturday 7am-9pm, Sunday 10am-5pm.",
		},
		{
			keywords: []string{"customer service", "hours"},
			answer:   fmt.Sprintf("Customer Service: Monday-Friday 8am-6pm, Saturday 9am-3pm. Call %s.", d.Phone),
		},
		{
			keywords: []string{"pool"},
			answer:   "We have four pools with swim lessons from CPR-certified instructors. Hours vary by season.",
		},
		{
			keywords: []string{"restriction"},
			answer:   "Stage 1 water restrictions are currently in effect. Outdoor watering is limited to assigned days.",
		},
	}
}

// Answer returns a canned answer when the query confidently matches an FAQ
// entry. The best match wins; emergencies outrank everything.
func (d *District) Answer(query string) (string, bool) {
	lower := strings.ToLower(query)

	best := -1
	bestScore := 0
	for i, e := range d.entries {
		matched := true
		for _, kw := range e.keywords {
			if !strings.Contains(lower, kw) {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}
		score := len(e.keywords)*10 + e.priority
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 {
		return "", false
	}
	return d.entries[best].answer, true
}

// Snapshot is the domain-context blob handed to generation at call start.
// It is immutable for the session's lifetime.
func (d *District) Snapshot() string {
	return d.snapshot
}

func (d *District) Ready() bool {
	return len(d.entries) > 0
}

func buildSnapshot(d *District) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s. Phone %s. Office at %s. Website %s.\n", d.Name, d.Phone, d.Address, d.Website)
	b.WriteString("Customer service hours: Monday-Friday 8am-6pm, Saturday 9am-3pm, closed Sunday.\n")
	fmt.Fprintf(&b, "Water emergencies: %s, available %s.\n", d.emergencyPhone, d.emergencyHours)
	b.WriteString("Known answers:\n")
	for _, e := range d.entries {
		b.WriteString("- " + e.answer + "\n")
	}
	return b.String()
}

// OpenNow reports whether customer service is staffed at t.
func (d *District) OpenNow(t time.Time) bool {
	hour := t.Hour()
	switch t.Weekday() {
	case time.Saturday:
		return hour >= 9 && hour < 15
	case time.Sunday:
		return false
	default:
		return hour >= 8 && hour < 18
	}
}

// AfterHoursGreeting is spoken when a call arrives outside staffed hours.
func (d *District) AfterHoursGreeting() string {
	return fmt.Sprintf(
		"Thanks for calling %s. Our office is currently closed, but I can still help with general questions. For water emergencies call %s. What can I help you with?",
		d.Name, d.emergencyPhone)
}

// Greeting is the standard welcome for a new call.
func (d *District) Greeting(assistantName string) string {
	return fmt.Sprintf(
		"Hello! This is %s, the assistant for %s. I can help with water service, billing, facilities, or general information. What can I help you with today?",
		assistantName, d.Name)
}

// Info returns the static district facts served by the info endpoint.
func (d *District) Info() map[string]any {
	return map[string]any{
		"name":    d.Name,
		"phone":   d.Phone,
		"address": d.Address,
		"website": d.Website,
		"emergency": map[string]string{
			"phone": d.emergencyPhone,
			"hours": d.emergencyHours,
		},
	}
}
