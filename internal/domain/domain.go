package domain

import (
	"github.com/lifeease/lifeease-client/internal/domain/chat"
	"github.com/lifeease/lifeease-client/internal/domain/client"
)

const (
	RoleUser      = chat.RoleUser
	RoleAssistant = chat.RoleAssistant

	TurnPending = chat.TurnPending
	TurnSettled = chat.TurnSettled
	TurnFailed  = chat.TurnFailed
)

type (
	Role       = chat.Role
	TurnStatus = chat.TurnStatus
	Attachment = chat.Attachment
	Turn       = chat.Turn

	HistoryEntry = chat.HistoryEntry
	ChatResponse = chat.ChatResponse
	HealthStatus = chat.HealthStatus

	ClientState = client.ClientState
	Profile     = client.Profile
)

var NewAttachment = chat.NewAttachment
