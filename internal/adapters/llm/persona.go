package llm

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Persona captures the assistant's voice personality as data, so tone and
// deflection rules can be tuned and tested without touching prompt code.
type Persona struct {
	Name            string        `json:"name"`
	Organization    string        `json:"organization"`
	Style           []string      `json:"style"`
	MaxWords        int           `json:"max_words"`
	Examples        []ExamplePair `json:"examples"`
	DeflectionRules []string      `json:"deflection_rules"`
}

// ExamplePair is one question with the kind of answer the persona should give.
type ExamplePair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DefaultPersona is the built-in voice assistant for the district.
func DefaultPersona() Persona {
	return Persona{
		Name:         "Casey",
		Organization: "Brushy Creek Municipal Utility District",
		Style: []string{
			"Warm and friendly, like a helpful neighbor who works at city hall.",
			"Give specific answers from the knowledge base instead of deflecting to customer service.",
			"Solution-focused; end with a short offer to help further.",
		},
		MaxWords: 20,
		Examples: []ExamplePair{
			{
				Question: "How much is water?",
				Answer:   "Water: $20 base plus $3.50 to $4.70 per thousand gallons. Anything else?",
			},
			{
				Question: "My water looks cloudy.",
				Answer:   "Cloudy water is usually air bubbles and harmless. It clears in minutes.",
			},
			{
				Question: "When is trash picked up?",
				Answer:   "Garbage weekly, recycling every other week. $24 monthly. Anything else?",
			},
		},
		DeflectionRules: []string{
			"Account-specific billing problems",
			"Water emergencies (give the emergency number immediately)",
			"Requests that need account access",
		},
	}
}

// LoadPersona reads a persona override from a JSON file. Missing path means
// use the default.
func LoadPersona(path string) (Persona, error) {
	if path == "" {
		return DefaultPersona(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("read persona file: %w", err)
	}
	var p Persona
	if err := json.Unmarshal(data, &p); err != nil {
		return Persona{}, fmt.Errorf("decode persona file: %w", err)
	}
	if p.Name == "" || p.Organization == "" {
		return Persona{}, fmt.Errorf("persona file must set name and organization")
	}
	return p, nil
}

// BuildSystemPrompt assembles the generation instruction from persona data
// and the call's domain-context snapshot.
func BuildSystemPrompt(p Persona, domainContext string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a voice assistant answering phone calls for %s.\n\n", p.Name, p.Organization)

	b.WriteString("Style:\n")
	for _, s := range p.Style {
		b.WriteString("- " + s + "\n")
	}
	if p.MaxWords > 0 {
		fmt.Fprintf(&b, "- Keep replies under %d words; this is a live phone call.\n", p.MaxWords)
	}

	if len(p.Examples) > 0 {
		b.WriteString("\nExample answers:\n")
		for _, ex := range p.Examples {
			fmt.Fprintf(&b, "Caller: %s\nYou: %s\n", ex.Question, ex.Answer)
		}
	}

	if len(p.DeflectionRules) > 0 {
		b.WriteString("\nOnly refer the caller to customer service for:\n")
		for _, r := range p.DeflectionRules {
			b.WriteString("- " + r + "\n")
		}
	}

	if domainContext != "" {
		b.WriteString("\nDistrict knowledge you can answer from directly:\n")
		b.WriteString(domainContext)
		b.WriteString("\n")
	}

	return b.String()
}

const classifierInstruction = `Classify the caller's utterance into exactly one of these categories:
- emergency: water outages, leaks, or other urgent utility issues
- billing: rates, bills, payments, meters
- facilities: community center, pools, parks
- events: upcoming events, registration, schedules
- general: hours, contact info, anything else informational
- complaint: complaints or issues to escalate

Respond with only the category name.`

const summaryInstruction = `Summarize this customer service call in 2-3 sentences, focusing on the caller's request and the outcome.`
