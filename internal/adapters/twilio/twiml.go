package twilio

import (
	"encoding/xml"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/observability"
)

// GatherConfig carries the speech-gather tuning for the next turn.
type GatherConfig struct {
	Action        string // webhook path Twilio posts the next utterance to
	Timeout       int    // seconds to wait for speech to start
	SpeechTimeout string // seconds of silence that end an utterance
	Language      string
}

type say struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	Timeout       int      `xml:"timeout,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr"`
	Language      string   `xml:"language,attr"`
	Say           *say     `xml:"Say,omitempty"`
}

type hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

func newGather(cfg GatherConfig, prompt string) gather {
	g := gather{
		Input:         "speech",
		Action:        cfg.Action,
		Method:        "POST",
		Timeout:       cfg.Timeout,
		SpeechTimeout: cfg.SpeechTimeout,
		Language:      cfg.Language,
	}
	if prompt != "" {
		g.Say = &say{Text: prompt}
	}
	return g
}

// RenderWelcome speaks the greeting and opens the first gather.
func RenderWelcome(greeting string, cfg GatherConfig) string {
	return render(response{Verbs: []any{
		say{Text: greeting},
		newGather(cfg, ""),
		say{Text: "I didn't hear anything. Please call back if you need assistance. Goodbye!"},
		hangup{},
	}})
}

// RenderContinue speaks the reply and gathers the next utterance, hanging
// up gracefully if the caller stays silent.
func RenderContinue(reply string, cfg GatherConfig) string {
	return render(response{Verbs: []any{
		say{Text: reply},
		newGather(cfg, "Anything else?"),
		say{Text: "Thanks for calling! Have a great day!"},
		hangup{},
	}})
}

// RenderReprompt asks the caller to repeat after low-confidence or empty
// input, without burning a turn.
func RenderReprompt(cfg GatherConfig) string {
	return render(response{Verbs: []any{
		newGather(cfg, "I didn't catch that. Could you repeat it?"),
		say{Text: "Thanks for calling! Have a great day!"},
		hangup{},
	}})
}

// RenderEnd speaks the final texts and hangs up.
func RenderEnd(texts ...string) string {
	verbs := make([]any, 0, len(texts)+1)
	for _, t := range texts {
		if t != "" {
			verbs = append(verbs, say{Text: t})
		}
	}
	verbs = append(verbs, hangup{})
	return render(response{Verbs: verbs})
}

// RenderError is the directive of last resort; it is also what render falls
// back to, so the transport always gets valid TwiML.
func RenderError(message string) string {
	if message == "" {
		message = "I'm sorry, we're experiencing technical difficulties. Please try calling back in a few minutes."
	}
	return render(response{Verbs: []any{say{Text: message}, hangup{}}})
}

// errorDocument is hand-rolled so the fallback of the fallback cannot fail.
const errorDocument = xml.Header + `<Response><Say>I'm sorry, we're experiencing technical difficulties. Please try calling back in a few minutes.</Say><Hangup></Hangup></Response>`

func render(r response) string {
	out, err := xml.Marshal(r)
	if err != nil {
		observability.Logger().Error("twiml marshal failed", "error", err)
		return errorDocument
	}
	return xml.Header + string(out)
}
