package chat

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type TurnStatus string

const (
	// TurnPending marks the assistant placeholder while its network call is in flight.
	TurnPending TurnStatus = "pending"
	TurnSettled TurnStatus = "settled"
	TurnFailed  TurnStatus = "failed"
)

// Attachment is a staged binary blob. It is owned by the conversation from the
// moment it is staged until it is bundled into a sent Turn or discarded, and is
// immutable once bundled.
type Attachment struct {
	Name      string
	ByteSize  int64
	Extension string
	Data      []byte
}

// NewAttachment derives size and extension from the raw bytes and file name.
func NewAttachment(name string, data []byte) Attachment {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return Attachment{
		Name:      name,
		ByteSize:  int64(len(data)),
		Extension: strings.ToLower(ext),
		Data:      data,
	}
}

// Turn is one unit of conversation. A user Turn and its paired assistant Turn
// are not linked by id; the assistant Turn is the reconciliation target for
// exactly one in-flight send.
type Turn struct {
	ID          uuid.UUID
	Role        Role
	Status      TurnStatus
	Text        string
	Attachments []Attachment
	CreatedAt   time.Time
	SettledAt   time.Time
}
