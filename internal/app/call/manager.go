package call

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/observability"
)

// NotFoundReply is spoken when a turn arrives for a call the store no
// longer knows. The caller hears an apology, never a protocol error.
const NotFoundReply = "I'm sorry, there was a problem with your call session. Please call back and I'll be happy to help."

// StatusReport answers a status query. Found is false when neither the
// active store nor the history log knows the call.
type StatusReport struct {
	Status       domain.CallStatus `json:"status"`
	StartedAt    time.Time         `json:"started_at,omitempty"`
	EndedAt      time.Time         `json:"ended_at,omitempty"`
	TurnCount    int               `json:"turn_count"`
	LastActivity time.Time         `json:"last_activity,omitempty"`
	Found        bool              `json:"-"`
}

// Manager owns the call session lifecycle: create, run turns, end, expire.
// No collaborator error escapes its public methods; every operation returns
// a well-formed result or a spoken fallback.
type Manager struct {
	store       domain.SessionStore
	turns       *TurnProcessor
	policy      *Policy
	llm         domain.LLMClient
	callTimeout time.Duration
	now         func() time.Time

	mu           sync.Mutex
	historyLog   []*domain.CallSession // terminal calls, oldest first, bounded
	historyLimit int
	initialized  bool
	sweepCancel  context.CancelFunc
	sweepDone    chan struct{}
}

func NewManager(store domain.SessionStore, turns *TurnProcessor, policy *Policy, llm domain.LLMClient, callTimeout time.Duration, historyLimit int) *Manager {
	return &Manager{
		store:        store,
		turns:        turns,
		policy:       policy,
		llm:          llm,
		callTimeout:  callTimeout,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// Initialize starts the expiry sweep. Calling it twice is a no-op.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return nil
	}

	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.sweepCancel = cancel
	m.sweepDone = make(chan struct{})
	go m.sweepLoop(sweepCtx)

	m.initialized = true
	observability.Logger().Info("call session manager initialized", "call_timeout", m.callTimeout)
	return nil
}

// Shutdown stops the sweep and waits for it to exit. Idempotent.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return nil
	}
	m.initialized = false
	cancel, done := m.sweepCancel, m.sweepDone
	m.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Initialized reports readiness for the health endpoint.
func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// StartCall creates a new active session for the call SID and persists it.
// The returned session id is distinct from the call SID; the call SID stays
// the lookup key.
func (m *Manager) StartCall(ctx context.Context, callID domain.CallID, caller, domainContext string) (domain.SessionID, error) {
	now := m.now()
	session := &domain.CallSession{
		ID:            domain.SessionID(uuid.NewString()),
		CallID:        callID,
		Caller:        caller,
		Status:        domain.StatusActive,
		StartedAt:     now,
		DomainContext: domainContext,
	}

	if err := m.store.Put(ctx, session, m.callTimeout); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to persist new call session", "call_sid", callID, "error", err)
		return "", err
	}

	observability.LoggerFromContext(ctx).Info("call started", "call_sid", callID, "session_id", session.ID)
	return session.ID, nil
}

// HandleTurn runs one conversational turn. The reply is always non-empty;
// continueCall reports whether the gateway should gather more speech. An
// unknown call SID yields the generic apology and ends the call without
// creating a session.
func (m *Manager) HandleTurn(ctx context.Context, callID domain.CallID, utterance string) (reply string, continueCall bool) {
	log := observability.LoggerFromContext(ctx).With("call_sid", callID)

	session, err := m.store.Get(ctx, callID)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			log.Error("session load failed", "error", err)
		}
		return NotFoundReply, false
	}

	reply, intent := m.turns.Process(ctx, session, utterance)
	continueCall = m.policy.ShouldContinue(intent, utterance)

	// Persist the whole updated record before answering the gateway; the
	// next webhook for this call must see these turns.
	if err := m.store.Put(ctx, session, m.callTimeout); err != nil {
		log.Error("failed to persist session after turn", "error", err)
	}

	log.Info("turn handled", "intent", intent, "continue", continueCall, "turns", len(session.History))

	if !continueCall {
		if err := m.EndCall(ctx, callID, domain.EndReasonPolicy); err != nil {
			log.Error("failed to end call after policy decision", "error", err)
		}
	}
	return reply, continueCall
}

// EndCall moves the session to COMPLETED, records it in the history log and
// removes it from the active store. Ending an already-ended or unknown call
// is a no-op, not an error, so provider hangup callbacks and policy
// decisions can race safely.
func (m *Manager) EndCall(ctx context.Context, callID domain.CallID, reason domain.EndReason) error {
	session, err := m.store.Get(ctx, callID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	return m.endSession(ctx, session, reason)
}

// endSession finishes a session already in hand. Used by both EndCall and
// the expiry sweep, so both paths terminate calls identically.
func (m *Manager) endSession(ctx context.Context, session *domain.CallSession, reason domain.EndReason) error {
	session.Status = domain.StatusCompleted
	if reason == domain.EndReasonExpired {
		session.Status = domain.StatusExpired
	}
	session.EndReason = reason
	session.EndedAt = m.now()

	m.mu.Lock()
	m.historyLog = append(m.historyLog, session.Clone())
	if len(m.historyLog) > m.historyLimit {
		m.historyLog = m.historyLog[len(m.historyLog)-m.historyLimit:]
	}
	m.mu.Unlock()

	if err := m.store.Delete(ctx, session.CallID); err != nil {
		observability.LoggerFromContext(ctx).Warn("failed to delete ended session from store", "call_sid", session.CallID, "error", err)
	}

	observability.LoggerFromContext(ctx).Info("call ended",
		"call_sid", session.CallID, "reason", reason, "turns", len(session.History))
	return nil
}

// GetStatus checks the active store, then the history log. It never fails:
// an unknown id reports StatusNotFound.
func (m *Manager) GetStatus(ctx context.Context, callID domain.CallID) StatusReport {
	if session, err := m.store.Get(ctx, callID); err == nil {
		return StatusReport{
			Status:       session.Status,
			StartedAt:    session.StartedAt,
			TurnCount:    len(session.History),
			LastActivity: session.LastActivity(),
			Found:        true,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.historyLog) - 1; i >= 0; i-- {
		if s := m.historyLog[i]; s.CallID == callID {
			return StatusReport{
				Status:       s.Status,
				StartedAt:    s.StartedAt,
				EndedAt:      s.EndedAt,
				TurnCount:    len(s.History),
				LastActivity: s.LastActivity(),
				Found:        true,
			}
		}
	}

	return StatusReport{Status: domain.StatusNotFound}
}

// ExpireStaleCalls ends every active session whose last activity is older
// than the call timeout, exactly as EndCall would. Returns how many expired.
func (m *Manager) ExpireStaleCalls(ctx context.Context) int {
	sessions, err := m.store.Active(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("expiry sweep failed to list sessions", "error", err)
		return 0
	}

	cutoff := m.now().Add(-m.callTimeout)
	expired := 0
	for _, session := range sessions {
		if session.LastActivity().After(cutoff) {
			continue
		}
		if err := m.endSession(ctx, session, domain.EndReasonExpired); err != nil {
			observability.LoggerFromContext(ctx).Error("failed to expire session", "call_sid", session.CallID, "error", err)
			continue
		}
		expired++
	}

	if expired > 0 {
		observability.LoggerFromContext(ctx).Info("expired stale calls", "count", expired)
	}
	return expired
}

// ActiveCallCount reports how many calls are currently in the active store.
func (m *Manager) ActiveCallCount(ctx context.Context) int {
	sessions, err := m.store.Active(ctx)
	if err != nil {
		return 0
	}
	return len(sessions)
}

// SummarizeCall produces a short LLM summary of a call's transcript. The
// second return is false when the call is unknown or has no turns;
// provider failures degrade to a fixed unavailable message.
func (m *Manager) SummarizeCall(ctx context.Context, callID domain.CallID) (string, bool) {
	session, err := m.store.Get(ctx, callID)
	if err != nil {
		m.mu.Lock()
		for i := len(m.historyLog) - 1; i >= 0; i-- {
			if s := m.historyLog[i]; s.CallID == callID {
				session = s
				break
			}
		}
		m.mu.Unlock()
	}
	if session == nil || len(session.History) == 0 {
		return "", false
	}

	var b strings.Builder
	for _, t := range session.History {
		b.WriteString(string(t.Role) + ": " + t.Content + "\n")
	}

	summary, err := awaitReply(ctx, m.turns.responseTimeout, func(ctx context.Context) (string, error) {
		return m.llm.Summarize(ctx, b.String())
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("call summary failed", "call_sid", callID, "error", err)
		return "Summary unavailable", true
	}
	return summary, true
}

// sweepLoop runs the expiry sweep on a fixed interval, independent of call
// traffic, until the manager shuts down.
func (m *Manager) sweepLoop(ctx context.Context) {
	defer close(m.sweepDone)

	interval := m.callTimeout / 4
	if interval < 5*time.Second {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	observability.Logger().Info("expiry sweep started", "interval", interval)
	for {
		select {
		case <-ticker.C:
			m.ExpireStaleCalls(ctx)
		case <-ctx.Done():
			observability.Logger().Info("expiry sweep stopped", "reason", ctx.Err())
			return
		}
	}
}
