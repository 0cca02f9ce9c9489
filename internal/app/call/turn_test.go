package call_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/app/call"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
)

type fakeLLM struct {
	generate func(ctx context.Context, utterance string, convCtx domain.ConversationContext) (string, error)
	classify func(ctx context.Context, utterance string) (domain.Intent, error)
}

func (f *fakeLLM) GenerateReply(ctx context.Context, utterance string, convCtx domain.ConversationContext) (string, error) {
	if f.generate != nil {
		return f.generate(ctx, utterance, convCtx)
	}
	return "fake reply", nil
}

func (f *fakeLLM) ClassifyIntent(ctx context.Context, utterance string) (domain.Intent, error) {
	if f.classify != nil {
		return f.classify(ctx, utterance)
	}
	return domain.IntentGeneral, nil
}

func (f *fakeLLM) Summarize(context.Context, string) (string, error) {
	return "fake summary", nil
}

type fakeKB struct {
	answers map[string]string
}

func (f *fakeKB) Answer(query string) (string, bool) {
	a, ok := f.answers[query]
	return a, ok
}

func (f *fakeKB) Snapshot() string { return "test district context" }
func (f *fakeKB) Ready() bool      { return true }

func newSession() *domain.CallSession {
	return &domain.CallSession{
		ID:            "s-1",
		CallID:        "CA123",
		Caller:        "+15551234567",
		Status:        domain.StatusActive,
		StartedAt:     time.Now(),
		DomainContext: "test district context",
	}
}

func TestProcessAppendsBothTurns(t *testing.T) {
	tp := call.NewTurnProcessor(&fakeLLM{}, &fakeKB{}, 3, time.Second)
	sess := newSession()

	reply, intent := tp.Process(context.Background(), sess, "what are your hours")

	if reply != "fake reply" {
		t.Fatalf("reply = %q, want fake reply", reply)
	}
	if intent != domain.IntentGeneral {
		t.Fatalf("intent = %q, want general", intent)
	}
	if len(sess.History) != 2 {
		t.Fatalf("history length = %d, want 2", len(sess.History))
	}
	if sess.History[0].Role != domain.RoleCaller || sess.History[0].Content != "what are your hours" {
		t.Fatalf("first turn = %+v, want caller utterance", sess.History[0])
	}
	if sess.History[1].Role != domain.RoleAssistant || sess.History[1].Content != reply {
		t.Fatalf("second turn = %+v, want assistant reply", sess.History[1])
	}
}

func TestProcessRecordsCallerTurnEvenWhenEverythingFails(t *testing.T) {
	failing := &fakeLLM{
		generate: func(context.Context, string, domain.ConversationContext) (string, error) {
			return "", errors.New("provider down")
		},
		classify: func(context.Context, string) (domain.Intent, error) {
			return "", errors.New("provider down")
		},
	}
	tp := call.NewTurnProcessor(failing, &fakeKB{}, 3, time.Second)
	sess := newSession()

	reply, intent := tp.Process(context.Background(), sess, "hello there friend")

	if reply != call.FallbackReply {
		t.Fatalf("reply = %q, want fallback", reply)
	}
	if intent != domain.IntentGeneral {
		t.Fatalf("intent = %q, want fail-open general", intent)
	}
	if len(sess.History) != 2 {
		t.Fatalf("history length = %d, want caller turn and fallback recorded", len(sess.History))
	}
	if sess.History[0].Content != "hello there friend" {
		t.Fatalf("caller turn not preserved: %+v", sess.History[0])
	}
}

func TestProcessNeverResolvingGenerationHitsDeadline(t *testing.T) {
	block := make(chan struct{})
	hanging := &fakeLLM{
		generate: func(context.Context, string, domain.ConversationContext) (string, error) {
			<-block // never resolves
			return "too late", nil
		},
	}
	tp := call.NewTurnProcessor(hanging, &fakeKB{}, 3, 50*time.Millisecond)
	sess := newSession()

	start := time.Now()
	reply, _ := tp.Process(context.Background(), sess, "please hang forever")
	elapsed := time.Since(start)

	if reply != call.FallbackReply {
		t.Fatalf("reply = %q, want fallback", reply)
	}
	if elapsed > time.Second {
		t.Fatalf("turn took %v, want well under a second", elapsed)
	}
	close(block)
}

func TestProcessBoundsGenerationContext(t *testing.T) {
	var seen []domain.Turn
	recording := &fakeLLM{
		generate: func(_ context.Context, _ string, convCtx domain.ConversationContext) (string, error) {
			seen = convCtx.History
			return "ok", nil
		},
	}
	tp := call.NewTurnProcessor(recording, &fakeKB{}, 3, time.Second)
	sess := newSession()
	for i := 0; i < 10; i++ {
		sess.AppendTurn(domain.RoleCaller, "earlier question", time.Now())
		sess.AppendTurn(domain.RoleAssistant, "earlier answer", time.Now())
	}

	utterances := []string{
		"this particular question is long enough to dodge the reply cache because it exceeds fifty characters",
		"and so is this other question, also comfortably past the cache length threshold for replies",
	}
	for _, u := range utterances {
		tp.Process(context.Background(), sess, u)
		if len(seen) > 3 {
			t.Fatalf("generation saw %d turns of history, want at most 3", len(seen))
		}
	}
}

func TestProcessPrefersKnowledgeBase(t *testing.T) {
	llmCalled := false
	llm := &fakeLLM{
		generate: func(context.Context, string, domain.ConversationContext) (string, error) {
			llmCalled = true
			return "model answer", nil
		},
	}
	kb := &fakeKB{answers: map[string]string{"trash pickup day": "Garbage is picked up weekly."}}
	tp := call.NewTurnProcessor(llm, kb, 3, time.Second)

	reply, _ := tp.Process(context.Background(), newSession(), "trash pickup day")

	if reply != "Garbage is picked up weekly." {
		t.Fatalf("reply = %q, want knowledge answer", reply)
	}
	if llmCalled {
		t.Fatal("generation must not run when the knowledge base answers")
	}
}

func TestProcessCachesShortUtterances(t *testing.T) {
	calls := 0
	llm := &fakeLLM{
		generate: func(context.Context, string, domain.ConversationContext) (string, error) {
			calls++
			return "generated once", nil
		},
	}
	tp := call.NewTurnProcessor(llm, &fakeKB{}, 3, time.Second)

	first, _ := tp.Process(context.Background(), newSession(), "What are your hours?")
	second, _ := tp.Process(context.Background(), newSession(), "what are your hours?")

	if first != second {
		t.Fatalf("cached reply mismatch: %q vs %q", first, second)
	}
	if calls != 1 {
		t.Fatalf("generation ran %d times, want 1 (second hit served from cache)", calls)
	}
}

func TestHistoryNeverShrinks(t *testing.T) {
	tp := call.NewTurnProcessor(&fakeLLM{}, &fakeKB{}, 3, time.Second)
	sess := newSession()

	prev := 0
	for i := 0; i < 5; i++ {
		tp.Process(context.Background(), sess, "tell me something new about the district today please")
		if len(sess.History) < prev {
			t.Fatalf("history shrank from %d to %d", prev, len(sess.History))
		}
		prev = len(sess.History)
	}
	if prev != 10 {
		t.Fatalf("history length = %d after 5 turns, want 10", prev)
	}
}
