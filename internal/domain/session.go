package domain

import "time"

// Turn is one caller-or-assistant utterance within a call.
// Turns are appended, never mutated or reordered.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// CallSession holds one call's conversational state. The call SID assigned
// by the telephony provider is the lookup key; SessionID is a separate
// identifier so it can be rotated without re-keying the store.
type CallSession struct {
	ID            SessionID  `json:"session_id"`
	CallID        CallID     `json:"call_id"`
	Caller        string     `json:"caller"`
	Status        CallStatus `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       time.Time  `json:"ended_at,omitempty"`
	EndReason     EndReason  `json:"end_reason,omitempty"`
	History       []Turn     `json:"history"`
	DomainContext string     `json:"domain_context"`
}

// AppendTurn records one exchange. History only ever grows.
func (s *CallSession) AppendTurn(role Role, content string, at time.Time) {
	s.History = append(s.History, Turn{Role: role, Content: content, Timestamp: at})
}

// RecentTurns returns at most n of the latest turns, oldest first. The
// bounded window is what generation sees, regardless of total history length.
func (s *CallSession) RecentTurns(n int) []Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	if len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// LastActivity is the timestamp of the latest turn, or the call start when
// nothing has been said yet.
func (s *CallSession) LastActivity() time.Time {
	if len(s.History) == 0 {
		return s.StartedAt
	}
	return s.History[len(s.History)-1].Timestamp
}

// Clone returns a deep copy. Stores hand out and accept clones so concurrent
// webhook handlers never share a mutable record.
func (s *CallSession) Clone() *CallSession {
	cp := *s
	cp.History = make([]Turn, len(s.History))
	copy(cp.History, s.History)
	return &cp
}
