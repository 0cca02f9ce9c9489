// Package httpadapter exposes the voice webhook, status, summary, district
// info and health endpoints over chi.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/BubbaTeePi/brushy-creek-voice/internal/adapters/knowledge"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/adapters/twilio"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/app/call"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/config"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/domain"
	"github.com/BubbaTeePi/brushy-creek-voice/internal/observability"
)

type Server struct {
	mgr       *call.Manager
	district  *knowledge.District
	cfg       *config.Config
	assistant string // persona name spoken in the greeting
	llmReady  bool
	now       func() time.Time
}

func NewServer(mgr *call.Manager, district *knowledge.District, cfg *config.Config, assistantName string, llmReady bool) http.Handler {
	s := &Server{
		mgr:       mgr,
		district:  district,
		cfg:       cfg,
		assistant: assistantName,
		llmReady:  llmReady,
		now:       time.Now,
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	r.Post("/voice/incoming", s.handleIncoming)
	r.Post("/voice/gather", s.handleGather)
	r.Post("/voice/status-callback", s.handleStatusCallback)
	r.Get("/voice/status/{callSID}", s.handleStatus)
	r.Get("/voice/summary/{callSID}", s.handleSummary)
	r.Get("/district/info", s.handleDistrictInfo)
	r.Get("/health", s.handleHealth)

	return r
}

func (s *Server) gatherConfig() twilio.GatherConfig {
	return twilio.GatherConfig{
		Action:        "/voice/gather",
		Timeout:       s.cfg.GatherTimeout,
		SpeechTimeout: s.cfg.GatherSpeechTimeout,
		Language:      s.cfg.Language,
	}
}

// parseEvent validates the signature when configured and parses the form.
// A nil event with handled=true means a response was already written.
func (s *Server) parseEvent(w http.ResponseWriter, r *http.Request) (*twilio.InboundEvent, bool) {
	if err := r.ParseForm(); err != nil {
		writeTwiML(w, twilio.RenderError(""))
		return nil, true
	}

	if s.cfg.TwilioAuthToken != "" {
		sig := r.Header.Get("X-Twilio-Signature")
		reqURL := s.cfg.WebhookBaseURL + r.URL.Path
		if err := twilio.VerifySignature(s.cfg.TwilioAuthToken, reqURL, r.PostForm, sig); err != nil {
			observability.LoggerFromContext(r.Context()).Warn("webhook signature rejected", "error", err)
			http.Error(w, "signature verification failed", http.StatusForbidden)
			return nil, true
		}
	}

	ev, err := twilio.ParseInbound(r.PostForm)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Warn("malformed inbound event", "error", err)
		writeTwiML(w, twilio.RenderError(""))
		return nil, true
	}
	return &ev, false
}

func (s *Server) handleIncoming(w http.ResponseWriter, r *http.Request) {
	ev, handled := s.parseEvent(w, r)
	if handled {
		return
	}
	ctx := observability.WithCallSID(r.Context(), string(ev.CallID))

	if _, err := s.mgr.StartCall(ctx, ev.CallID, ev.Caller, s.district.Snapshot()); err != nil {
		writeTwiML(w, twilio.RenderError(""))
		return
	}

	greeting := s.district.Greeting(s.assistant)
	if !s.district.OpenNow(s.now()) {
		greeting = s.district.AfterHoursGreeting()
	}
	writeTwiML(w, twilio.RenderWelcome(greeting, s.gatherConfig()))
}

func (s *Server) handleGather(w http.ResponseWriter, r *http.Request) {
	ev, handled := s.parseEvent(w, r)
	if handled {
		return
	}
	ctx := observability.WithCallSID(r.Context(), string(ev.CallID))

	if !ev.Meaningful(s.cfg.ConfidenceThreshold) {
		writeTwiML(w, twilio.RenderReprompt(s.gatherConfig()))
		return
	}

	reply, continueCall := s.mgr.HandleTurn(ctx, ev.CallID, ev.Utterance)
	if continueCall {
		writeTwiML(w, twilio.RenderContinue(reply, s.gatherConfig()))
		return
	}
	writeTwiML(w, twilio.RenderEnd(reply, "Thanks for calling! Have a great day!"))
}

// handleStatusCallback receives Twilio call lifecycle events; a completed
// call ends the session, idempotent with the policy-driven end.
func (s *Server) handleStatusCallback(w http.ResponseWriter, r *http.Request) {
	ev, handled := s.parseEvent(w, r)
	if handled {
		return
	}
	ctx := observability.WithCallSID(r.Context(), string(ev.CallID))

	switch ev.CallStatus {
	case "completed", "failed", "busy", "no-answer", "canceled":
		if err := s.mgr.EndCall(ctx, ev.CallID, domain.EndReasonHangup); err != nil {
			observability.LoggerFromContext(ctx).Error("failed to end call from status callback", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	callSID := chi.URLParam(r, "callSID")
	report := s.mgr.GetStatus(r.Context(), domain.CallID(callSID))
	writeJSON(w, http.StatusOK, map[string]any{
		"call_sid":      callSID,
		"status":        report.Status,
		"started_at":    nonZero(report.StartedAt),
		"ended_at":      nonZero(report.EndedAt),
		"turn_count":    report.TurnCount,
		"last_activity": nonZero(report.LastActivity),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	callSID := chi.URLParam(r, "callSID")
	summary, ok := s.mgr.SummarizeCall(r.Context(), domain.CallID(callSID))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no conversation recorded for this call"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"call_sid": callSID, "summary": summary})
}

func (s *Server) handleDistrictInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.district.Info())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	healthy := s.mgr.Initialized() && s.district.Ready()
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": statusWord(healthy),
		"services": map[string]bool{
			"telephony": s.cfg.TwilioAuthToken != "",
			"llm":       s.llmReady,
			"knowledge": s.district.Ready(),
			"sessions":  s.mgr.Initialized(),
		},
		"active_calls": s.mgr.ActiveCallCount(r.Context()),
	})
}

// nonZero maps the zero time to nil so it renders as JSON null instead of
// the year-one timestamp.
func nonZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func statusWord(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "degraded"
}

func writeTwiML(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
