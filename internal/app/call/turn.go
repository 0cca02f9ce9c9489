package call

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/observability"
)

// FallbackReply is spoken whenever generation fails or times out. Voice
// calls cannot tolerate silence, so this path is always reachable.
const FallbackReply = "I apologize, but I'm having trouble processing your request right now. Please call our main customer service number and they'll be glad to help."

// maxCacheableLen bounds which utterances get a cached reply. Short
// utterances repeat often ("what are your hours"); long ones rarely do.
const maxCacheableLen = 50

// TurnProcessor executes one conversational turn: record what the caller
// said, classify it, answer from knowledge or the model, record the reply.
type TurnProcessor struct {
	llm             domain.LLMClient
	kb              domain.KnowledgeBase
	historyWindow   int
	responseTimeout time.Duration
	now             func() time.Time

	// Process-lifetime caches keyed by normalized utterance. With a
	// non-deterministic model the reply cache replays the first answer for a
	// repeated short question; that trade of freshness for latency is
	// deliberate.
	mu          sync.Mutex
	replyCache  map[string]string
	intentCache map[string]domain.Intent
}

func NewTurnProcessor(llm domain.LLMClient, kb domain.KnowledgeBase, historyWindow int, responseTimeout time.Duration) *TurnProcessor {
	return &TurnProcessor{
		llm:             llm,
		kb:              kb,
		historyWindow:   historyWindow,
		responseTimeout: responseTimeout,
		now:             time.Now,
		replyCache:      make(map[string]string),
		intentCache:     make(map[string]domain.Intent),
	}
}

// Process runs one turn against the session and returns the assistant's
// reply and the classified intent. It never fails: every error path ends in
// a spoken fallback. The caller utterance and the reply are both appended to
// session history no matter which path produced the reply.
func (t *TurnProcessor) Process(ctx context.Context, session *domain.CallSession, utterance string) (string, domain.Intent) {
	log := observability.LoggerFromContext(ctx).With("call_sid", session.CallID)

	// The record of what the caller said is preserved even if everything
	// after this line fails.
	session.AppendTurn(domain.RoleCaller, utterance, t.now())

	intent := t.classify(ctx, utterance, log)
	reply := t.resolveReply(ctx, session, utterance, log)

	session.AppendTurn(domain.RoleAssistant, reply, t.now())
	return reply, intent
}

// classify labels the utterance, failing open to general so a slow or broken
// classifier never blocks the turn.
func (t *TurnProcessor) classify(ctx context.Context, utterance string, log *slog.Logger) domain.Intent {
	key := normalize(utterance)

	t.mu.Lock()
	if cached, ok := t.intentCache[key]; ok {
		t.mu.Unlock()
		return cached
	}
	t.mu.Unlock()

	result, err := awaitIntent(ctx, t.responseTimeout, func(ctx context.Context) (domain.Intent, error) {
		return t.llm.ClassifyIntent(ctx, utterance)
	})
	if err != nil {
		log.Warn("intent classification failed, defaulting to general", "error", err)
		return domain.IntentGeneral
	}

	t.mu.Lock()
	t.intentCache[key] = result
	t.mu.Unlock()
	return result
}

// resolveReply tries, in order: cached reply, knowledge-base answer, bounded
// model generation, fixed fallback.
func (t *TurnProcessor) resolveReply(ctx context.Context, session *domain.CallSession, utterance string, log *slog.Logger) string {
	key := normalize(utterance)
	cacheable := len(key) > 0 && len(key) <= maxCacheableLen

	if cacheable {
		t.mu.Lock()
		if cached, ok := t.replyCache[key]; ok {
			t.mu.Unlock()
			return cached
		}
		t.mu.Unlock()
	}

	if answer, ok := t.kb.Answer(utterance); ok {
		t.cacheReply(key, answer, cacheable)
		return answer
	}

	// History is sampled before the caller turn we just appended would blow
	// the window: the window includes the current caller turn.
	convCtx := domain.ConversationContext{
		CallID:        session.CallID,
		DomainContext: session.DomainContext,
		History:       session.RecentTurns(t.historyWindow),
	}

	reply, err := awaitReply(ctx, t.responseTimeout, func(ctx context.Context) (string, error) {
		return t.llm.GenerateReply(ctx, utterance, convCtx)
	})
	if err != nil {
		log.Warn("generation failed, using fallback reply", "error", err)
		return FallbackReply
	}

	t.cacheReply(key, reply, cacheable)
	return reply
}

func (t *TurnProcessor) cacheReply(key, reply string, cacheable bool) {
	if !cacheable {
		return
	}
	t.mu.Lock()
	t.replyCache[key] = reply
	t.mu.Unlock()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// awaitReply runs f under a hard deadline. When the deadline passes the
// pending call is abandoned, not awaited: the goroutine drains into a
// buffered channel and exits on its own whenever the provider returns.
func awaitReply(ctx context.Context, timeout time.Duration, f func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := f(ctx)
		ch <- result{text, err}
	}()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func awaitIntent(ctx context.Context, timeout time.Duration, f func(context.Context) (domain.Intent, error)) (domain.Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		intent domain.Intent
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		intent, err := f(ctx)
		ch <- result{intent, err}
	}()

	select {
	case r := <-ch:
		return r.intent, r.err
	case <-ctx.Done():
		return domain.IntentGeneral, ctx.Err()
	}
}
