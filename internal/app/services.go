package app

import (
	"github.com/lifeease/lifeease-client/internal/data/store"
	"github.com/lifeease/lifeease-client/internal/pkg/logger"
	"github.com/lifeease/lifeease-client/internal/platform/backend"
	"github.com/lifeease/lifeease-client/internal/services"
)

type Services struct {
	Sessions     services.SessionService
	Router       services.RouterService
	Conversation services.ConversationService
	Profile      services.ProfileService
	Verify       services.VerifyService
}

func wireServices(backendClient backend.Client, clientStore store.ClientStore, log *logger.Logger) Services {
	sessions := services.NewSessionService(clientStore, log)
	router := services.NewRouterService(backendClient, sessions, clientStore, log)
	conversation := services.NewConversationService(router, log)
	profile := services.NewProfileService(clientStore, log)
	verify := services.NewVerifyService(conversation, router, sessions, log)
	return Services{
		Sessions:     sessions,
		Router:       router,
		Conversation: conversation,
		Profile:      profile,
		Verify:       verify,
	}
}
