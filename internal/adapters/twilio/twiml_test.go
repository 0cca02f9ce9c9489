package twilio

import (
	"encoding/xml"
	"strings"
	"testing"
)

var testGather = GatherConfig{
	Action:        "/voice/gather",
	Timeout:       2,
	SpeechTimeout: "1",
	Language:      "en-US",
}

// wellFormed checks the document parses and is rooted at <Response>.
func wellFormed(t *testing.T, doc string) {
	t.Helper()
	var root struct {
		XMLName xml.Name `xml:"Response"`
	}
	if err := xml.Unmarshal([]byte(doc), &root); err != nil {
		t.Fatalf("document does not parse: %v\n%s", err, doc)
	}
}

func TestRenderWelcome(t *testing.T) {
	doc := RenderWelcome("Thank you for calling.", testGather)
	wellFormed(t, doc)

	if !strings.Contains(doc, "<Say>Thank you for calling.</Say>") {
		t.Fatalf("greeting missing:\n%s", doc)
	}
	if !strings.Contains(doc, `action="/voice/gather"`) {
		t.Fatalf("gather action missing:\n%s", doc)
	}
	if !strings.Contains(doc, `input="speech"`) {
		t.Fatalf("speech input missing:\n%s", doc)
	}
	if !strings.Contains(doc, "<Hangup>") {
		t.Fatalf("silence fallback hangup missing:\n%s", doc)
	}
}

func TestRenderContinue(t *testing.T) {
	doc := RenderContinue("The pool is open until eight.", testGather)
	wellFormed(t, doc)

	if !strings.Contains(doc, "The pool is open until eight.") {
		t.Fatalf("reply missing:\n%s", doc)
	}
	if !strings.Contains(doc, "Anything else?") {
		t.Fatalf("follow-up prompt missing:\n%s", doc)
	}
	if strings.Index(doc, "<Gather") > strings.Index(doc, "<Hangup") {
		t.Fatalf("gather must come before the hangup fallback:\n%s", doc)
	}
}

func TestRenderReprompt(t *testing.T) {
	doc := RenderReprompt(testGather)
	wellFormed(t, doc)

	if !strings.Contains(doc, "Could you repeat it?") {
		t.Fatalf("reprompt missing:\n%s", doc)
	}
}

func TestRenderEnd(t *testing.T) {
	doc := RenderEnd("Here is your answer.", "", "Goodbye!")
	wellFormed(t, doc)

	if !strings.Contains(doc, "Here is your answer.") || !strings.Contains(doc, "Goodbye!") {
		t.Fatalf("final texts missing:\n%s", doc)
	}
	if strings.Contains(doc, "<Say></Say>") {
		t.Fatalf("empty texts must be skipped:\n%s", doc)
	}
	if !strings.Contains(doc, "<Hangup>") {
		t.Fatalf("hangup missing:\n%s", doc)
	}
	if strings.Contains(doc, "<Gather") {
		t.Fatalf("end document must not gather:\n%s", doc)
	}
}

func TestRenderError(t *testing.T) {
	doc := RenderError("")
	wellFormed(t, doc)

	if !strings.Contains(doc, "technical difficulties") {
		t.Fatalf("default apology missing:\n%s", doc)
	}

	custom := RenderError("Please call back later.")
	wellFormed(t, custom)
	if !strings.Contains(custom, "Please call back later.") {
		t.Fatalf("custom message missing:\n%s", custom)
	}
}

func TestReplyTextIsEscaped(t *testing.T) {
	doc := RenderEnd(`Rates are $3 for <2,000 gallons & up`)
	wellFormed(t, doc)

	if strings.Contains(doc, "<2,000") {
		t.Fatalf("reply text leaked unescaped markup:\n%s", doc)
	}
}
