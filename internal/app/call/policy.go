package call

import (
	"strings"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
)

// Policy decides whether the conversation continues after a turn. It is a
// pure function of its inputs: no collaborators, no side effects.
type Policy struct {
	closingPhrases []string
	terminating    map[domain.Intent]bool
}

func NewPolicy(closingPhrases []string, terminating []domain.Intent) *Policy {
	p := &Policy{
		closingPhrases: make([]string, 0, len(closingPhrases)),
		terminating:    make(map[domain.Intent]bool, len(terminating)),
	}
	for _, phrase := range closingPhrases {
		p.closingPhrases = append(p.closingPhrases, strings.ToLower(strings.TrimSpace(phrase)))
	}
	for _, intent := range terminating {
		p.terminating[intent] = true
	}
	return p
}

// ShouldContinue applies the rules in order, first match wins:
// closing phrase in the utterance ends the call, then a terminating intent
// routes out of the automated flow, otherwise the conversation continues.
func (p *Policy) ShouldContinue(intent domain.Intent, utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, phrase := range p.closingPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	if p.terminating[intent] {
		return false
	}
	return true
}
