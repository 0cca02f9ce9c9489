// Package twilio translates Twilio webhook payloads into internal events
// and internal directives into TwiML documents. Nothing in here lets an
// error escape to the transport boundary: every render path produces a
// valid document.
package twilio

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
)

// InboundEvent is one caller-turn event parsed from a webhook payload.
type InboundEvent struct {
	CallID     domain.CallID
	Caller     string
	Utterance  string
	Confidence float64
	CallStatus string
}

// ParseInbound extracts the event from Twilio's form-encoded payload.
// CallSid is the only hard requirement; everything else defaults empty.
func ParseInbound(form url.Values) (InboundEvent, error) {
	callSID := strings.TrimSpace(form.Get("CallSid"))
	if callSID == "" {
		return InboundEvent{}, fmt.Errorf("%w: missing CallSid", domain.ErrMalformedEvent)
	}

	confidence := 0.0
	if raw := form.Get("Confidence"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			confidence = f
		}
	}

	return InboundEvent{
		CallID:     domain.CallID(callSID),
		Caller:     form.Get("From"),
		Utterance:  strings.TrimSpace(form.Get("SpeechResult")),
		Confidence: confidence,
		CallStatus: form.Get("CallStatus"),
	}, nil
}

// fillerWords are transcriptions that carry no intent; sending them to the
// turn pipeline wastes a generation call on noise.
var fillerWords = map[string]bool{
	"um": true, "uh": true, "hmm": true, "hm": true, "uhh": true,
}

// Meaningful reports whether the utterance is worth a turn: confident
// enough, longer than two non-space characters, and not a filler word.
// Payloads without a confidence field parse as zero and fail the threshold;
// the caller gets a reprompt instead of a guessed turn.
func (e InboundEvent) Meaningful(threshold float64) bool {
	trimmed := strings.TrimSpace(e.Utterance)
	if len(strings.ReplaceAll(trimmed, " ", "")) <= 2 {
		return false
	}
	if fillerWords[strings.ToLower(trimmed)] {
		return false
	}
	return e.Confidence >= threshold
}
