package services

import (
	"context"
	"time"

	"github.com/lifeease/lifeease-client/internal/data/store"
	types "github.com/lifeease/lifeease-client/internal/domain"
	"github.com/lifeease/lifeease-client/internal/pkg/logger"
	"github.com/lifeease/lifeease-client/internal/platform/backend"
)

// AnalyzeRequest is a sessionless analysis request. The encoding is chosen
// from the payload shape: attachments present means multipart, otherwise JSON.
type AnalyzeRequest struct {
	Text        string
	Attachments []types.Attachment
	Timeout     time.Duration
}

// RouteRequest is a conversational turn. It always carries the current
// session id; the system prompt follows per-call > stored default > omitted.
type RouteRequest struct {
	Text        string
	Attachments []types.Attachment
	// SystemPrompt overrides the stored client-wide default for this call only.
	SystemPrompt string
	Timeout      time.Duration
}

// RouterService selects transport encoding and endpoint for logical requests
// and attaches the session id to every call that participates in a
// conversation. Health checks carry no session.
//
// Only the first attachment of a request is forwarded. The backend accepts a
// single image per turn; the narrowing happens here, visibly, instead of being
// silently widened.
type RouterService interface {
	// Analyze routes to the vision endpoint (multipart) when attachments are
	// present, else to the text endpoint (JSON carrying only text).
	Analyze(ctx context.Context, req AnalyzeRequest) (*types.ChatResponse, error)

	// Route sends one session-correlated turn to the chat endpoint.
	Route(ctx context.Context, req RouteRequest) (*types.ChatResponse, error)

	FetchHistory(ctx context.Context) (*types.ChatResponse, error)
	ResetHistory(ctx context.Context) (*types.ChatResponse, error)

	// EndConversation resets server-side history best-effort, then rotates the
	// session id. Rotation happens even when the reset call fails: the user's
	// goal is a fresh start locally regardless of server-side cleanup.
	EndConversation(ctx context.Context) (string, error)

	// SetSystemPrompt stores (or, with an empty prompt, clears) the
	// client-wide system prompt default.
	SetSystemPrompt(ctx context.Context, prompt string) error
	SystemPrompt(ctx context.Context) (string, error)
}

type routerService struct {
	backend  backend.Client
	sessions SessionService
	store    store.ClientStore
	log      *logger.Logger
}

func NewRouterService(backendClient backend.Client, sessions SessionService, clientStore store.ClientStore, baseLog *logger.Logger) RouterService {
	return &routerService{
		backend:  backendClient,
		sessions: sessions,
		store:    clientStore,
		log:      baseLog.With("service", "RouterService"),
	}
}

func (r *routerService) Analyze(ctx context.Context, req AnalyzeRequest) (*types.ChatResponse, error) {
	if len(req.Attachments) > 0 {
		return r.backend.AnalyzeVision(ctx, req.Attachments[:1], req.Text, req.Timeout)
	}
	return r.backend.AnalyzeText(ctx, req.Text, req.Timeout)
}

func (r *routerService) Route(ctx context.Context, req RouteRequest) (*types.ChatResponse, error) {
	sid, err := r.sessions.CurrentID(ctx)
	if err != nil {
		return nil, err
	}

	prompt := req.SystemPrompt
	if prompt == "" {
		prompt, err = r.SystemPrompt(ctx)
		if err != nil {
			// A stored default is a convenience; the turn still goes out.
			r.log.Warn("system prompt unavailable", "error", err)
			prompt = ""
		}
	}

	atts := req.Attachments
	if len(atts) > 1 {
		atts = atts[:1]
	}

	return r.backend.Chat(ctx, backend.ChatRequest{
		Text:         req.Text,
		SessionID:    sid,
		SystemPrompt: prompt,
		Attachments:  atts,
		Timeout:      req.Timeout,
	})
}

func (r *routerService) FetchHistory(ctx context.Context) (*types.ChatResponse, error) {
	sid, err := r.sessions.CurrentID(ctx)
	if err != nil {
		return nil, err
	}
	return r.backend.History(ctx, sid)
}

func (r *routerService) ResetHistory(ctx context.Context) (*types.ChatResponse, error) {
	sid, err := r.sessions.CurrentID(ctx)
	if err != nil {
		return nil, err
	}
	return r.backend.ResetHistory(ctx, sid)
}

func (r *routerService) EndConversation(ctx context.Context) (string, error) {
	if _, err := r.ResetHistory(ctx); err != nil {
		r.log.Warn("history reset failed, rotating anyway",
			"kind", backend.KindOf(err),
			"error", err,
		)
	}
	return r.sessions.Rotate(ctx)
}

func (r *routerService) SetSystemPrompt(ctx context.Context, prompt string) error {
	if prompt == "" {
		return r.store.Delete(ctx, store.KeySystemPrompt)
	}
	return r.store.Set(ctx, store.KeySystemPrompt, prompt)
}

func (r *routerService) SystemPrompt(ctx context.Context) (string, error) {
	v, _, err := r.store.Get(ctx, store.KeySystemPrompt)
	return v, err
}
