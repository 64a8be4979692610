package services

import (
	"context"
	"fmt"

	types "github.com/lifeease/lifeease-client/internal/domain"
	"github.com/lifeease/lifeease-client/internal/pkg/ctxutil"
	"github.com/lifeease/lifeease-client/internal/pkg/logger"
)

// verifyWindow is how many trailing history entries are inspected.
const verifyWindow = 4

// VerifyResult is the verdict of one history verification run.
type VerifyResult struct {
	SessionID     string
	Roles         []string
	HistoryLength int
	OK            bool
}

// VerifyService is a diagnostic harness, not part of the production request
// path. It drives two serial turns through the conversation state machine and
// checks that the server-side history still interleaves assistant replies.
type VerifyService interface {
	Verify(ctx context.Context, first, second string) (*VerifyResult, error)
}

type verifyService struct {
	conversation ConversationService
	router       RouterService
	sessions     SessionService
	log          *logger.Logger
}

func NewVerifyService(conversation ConversationService, router RouterService, sessions SessionService, baseLog *logger.Logger) VerifyService {
	return &verifyService{
		conversation: conversation,
		router:       router,
		sessions:     sessions,
		log:          baseLog.With("service", "VerifyService"),
	}
}

func (s *verifyService) Verify(ctx context.Context, first, second string) (*VerifyResult, error) {
	ctx = ctxutil.Default(ctx)

	sid, err := s.sessions.CurrentID(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("verifying history flow", "session_id", sid)

	// Two sequential turns, each awaited before the next starts.
	for i, text := range []string{first, second} {
		receipt, ok := s.conversation.Send(ctx, text)
		if !ok {
			return nil, fmt.Errorf("verify turn %d rejected: empty text", i+1)
		}
		<-receipt.Done

		turn, found := s.conversation.Turn(receipt.AssistantTurnID)
		if !found {
			return nil, fmt.Errorf("verify turn %d missing from transcript", i+1)
		}
		if turn.Status == types.TurnFailed {
			return nil, fmt.Errorf("verify turn %d failed: %s", i+1, turn.Text)
		}
	}

	hist, err := s.router.FetchHistory(ctx)
	if err != nil {
		return nil, err
	}
	if !hist.Success && hist.Message != "" {
		// Reached-and-declined is a condition to report, not an error.
		s.log.Warn("history fetch declined", "message", hist.Message)
	}

	entries := hist.History
	start := len(entries) - verifyWindow
	if start < 0 {
		start = 0
	}
	window := entries[start:]

	roles := make([]string, 0, len(window))
	hasAssistant := false
	for _, e := range window {
		roles = append(roles, e.Role)
		if e.Role == string(types.RoleAssistant) {
			hasAssistant = true
		}
	}

	s.log.Info("history verified",
		"session_id", sid,
		"history_length", len(entries),
		"roles", roles,
		"ok", hasAssistant,
	)

	return &VerifyResult{
		SessionID:     sid,
		Roles:         roles,
		HistoryLength: len(entries),
		OK:            hasAssistant,
	}, nil
}
