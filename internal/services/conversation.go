package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/lifeease/lifeease-client/internal/domain"
	"github.com/lifeease/lifeease-client/internal/pkg/ctxutil"
	"github.com/lifeease/lifeease-client/internal/pkg/logger"
	"github.com/lifeease/lifeease-client/internal/platform/backend"
)

// assistantRoleMarker is a contract with the backend's output format: replies
// sometimes embed the raw role token, and the displayed text is whatever
// follows its last occurrence. When the marker is absent the reply is used
// unchanged.
const assistantRoleMarker = "assistant"

// sendFailureText is the one generic message shown on a failed turn. The
// specific failure kind is logged, never displayed.
const sendFailureText = "Error reaching server. Please try again."

// SendReceipt identifies the two turns appended by one send. Done is closed
// once the pending assistant turn reaches a terminal status.
type SendReceipt struct {
	UserTurnID      uuid.UUID
	AssistantTurnID uuid.UUID
	Done            <-chan struct{}
}

// ConversationService maintains the ordered transcript of one conversation:
// it stages attachments before send, appends optimistic turns, and reconciles
// the pending assistant turn when its network call resolves.
type ConversationService interface {
	// StageAttachment appends to the pending attachment set. No cap is
	// enforced here; that is left to the backend and the UI.
	StageAttachment(att types.Attachment)

	// UnstageAttachment removes one staged attachment by position. Invalid
	// indexes are a no-op.
	UnstageAttachment(index int)

	StagedAttachments() []types.Attachment

	// Send captures-and-clears the staged set, appends a settled user turn and
	// a pending assistant placeholder, and dispatches the network call
	// asynchronously. It returns false without side effects when both the
	// trimmed text and the staged set are empty.
	Send(ctx context.Context, rawText string) (*SendReceipt, bool)

	// Transcript returns a snapshot of the transcript in append order.
	Transcript() []types.Turn

	// Turn returns a snapshot of one turn by id.
	Turn(id uuid.UUID) (types.Turn, bool)

	// Clear drops the transcript and any staged attachments.
	Clear()
}

type conversationService struct {
	router RouterService
	log    *logger.Logger

	mu     sync.Mutex
	staged []types.Attachment
	turns  []*types.Turn
	byID   map[uuid.UUID]*types.Turn
}

func NewConversationService(router RouterService, baseLog *logger.Logger) ConversationService {
	return &conversationService{
		router: router,
		log:    baseLog.With("service", "ConversationService"),
		byID:   map[uuid.UUID]*types.Turn{},
	}
}

func (s *conversationService) StageAttachment(att types.Attachment) {
	s.mu.Lock()
	s.staged = append(s.staged, att)
	s.mu.Unlock()
}

func (s *conversationService) UnstageAttachment(index int) {
	s.mu.Lock()
	if index >= 0 && index < len(s.staged) {
		s.staged = append(s.staged[:index], s.staged[index+1:]...)
	}
	s.mu.Unlock()
}

func (s *conversationService) StagedAttachments() []types.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Attachment, len(s.staged))
	copy(out, s.staged)
	return out
}

func (s *conversationService) Send(ctx context.Context, rawText string) (*SendReceipt, bool) {
	text := strings.TrimSpace(rawText)
	now := time.Now()

	s.mu.Lock()
	if text == "" && len(s.staged) == 0 {
		s.mu.Unlock()
		return nil, false
	}

	// Snapshot-and-clear is a single step under the lock: an attachment staged
	// after this point belongs to the next turn, never to this one.
	atts := s.staged
	s.staged = nil

	user := &types.Turn{
		ID:          uuid.New(),
		Role:        types.RoleUser,
		Status:      types.TurnSettled,
		Text:        text,
		Attachments: atts,
		CreatedAt:   now,
		SettledAt:   now,
	}
	pending := &types.Turn{
		ID:        uuid.New(),
		Role:      types.RoleAssistant,
		Status:    types.TurnPending,
		Text:      placeholderText(atts),
		CreatedAt: now,
	}
	s.append(user)
	s.append(pending)
	s.mu.Unlock()

	done := make(chan struct{})
	assistantID := pending.ID
	go func() {
		defer close(done)
		resp, err := s.router.Route(ctxutil.Default(ctx), RouteRequest{Text: text, Attachments: atts})
		if err != nil {
			s.log.Warn("send failed",
				"turn_id", assistantID,
				"kind", backend.KindOf(err),
				"error", err,
			)
			s.settle(assistantID, sendFailureText, types.TurnFailed)
			return
		}
		s.settle(assistantID, composeReply(resp, atts), types.TurnSettled)
	}()

	return &SendReceipt{
		UserTurnID:      user.ID,
		AssistantTurnID: assistantID,
		Done:            done,
	}, true
}

// append assumes s.mu is held.
func (s *conversationService) append(t *types.Turn) {
	s.turns = append(s.turns, t)
	s.byID[t.ID] = t
}

// settle transitions a pending turn to a terminal status exactly once,
// matched by turn id so completion order never matters.
func (s *conversationService) settle(id uuid.UUID, text string, status types.TurnStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok || t.Status != types.TurnPending {
		return
	}
	t.Text = text
	t.Status = status
	t.SettledAt = time.Now()
}

func (s *conversationService) Transcript() []types.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Turn, 0, len(s.turns))
	for _, t := range s.turns {
		out = append(out, *t)
	}
	return out
}

func (s *conversationService) Turn(id uuid.UUID) (types.Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return types.Turn{}, false
	}
	return *t, true
}

func (s *conversationService) Clear() {
	s.mu.Lock()
	s.turns = nil
	s.byID = map[uuid.UUID]*types.Turn{}
	s.staged = nil
	s.mu.Unlock()
}

func placeholderText(atts []types.Attachment) string {
	if len(atts) > 0 {
		return "Uploading files…"
	}
	return "Thinking…"
}

// composeReply builds the displayed assistant text: the normalized model
// output, prefixed with an upload acknowledgement when attachments were sent.
func composeReply(resp *types.ChatResponse, atts []types.Attachment) string {
	reply := ""
	if resp != nil {
		reply = normalizeReply(resp.ModelOutput)
		if reply == "" && !resp.Success && resp.Message != "" {
			// Guardrail rejection: the server was reached and declined.
			// Its message is the reply.
			reply = strings.TrimSpace(resp.Message)
		}
	}

	if len(atts) == 0 {
		if reply == "" {
			return "✓"
		}
		return reply
	}

	ack := uploadAck(atts)
	if reply == "" {
		return ack
	}
	return ack + "\n\n" + reply
}

// normalizeReply strips everything up to and including the last role marker.
func normalizeReply(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.LastIndex(raw, assistantRoleMarker); idx >= 0 {
		return strings.TrimSpace(raw[idx+len(assistantRoleMarker):])
	}
	return raw
}

func uploadAck(atts []types.Attachment) string {
	sizes := make([]string, 0, len(atts))
	for _, a := range atts {
		sizes = append(sizes, formatBytes(a.ByteSize))
	}
	plural := ""
	if len(atts) > 1 {
		plural = "s"
	}
	return fmt.Sprintf("✓ Uploaded %d file%s (%s)", len(atts), plural, strings.Join(sizes, " + "))
}

func formatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB", "TB"}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(units) {
		i = len(units) - 1
	}
	v := float64(n) / math.Pow(1024, float64(i))
	if i == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f %s", v, units[i])
}
