package client

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ClientState is a durable key/value row, the installation-scoped analog of
// browser localStorage. The session id and the client-wide system prompt
// default live here.
type ClientState struct {
	Key       string    `gorm:"primaryKey;column:key" json:"key"`
	Value     string    `gorm:"column:value;type:text;not null;default:''" json:"value"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ClientState) TableName() string { return "client_state" }

// Profile is the onboarding profile persisted for the UI shell. The field set
// is free-form; this layer only merges and stores it.
type Profile struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Onboarded bool           `gorm:"column:onboarded;not null;default:false" json:"onboarded"`
	Fields    datatypes.JSON `gorm:"column:fields;not null;default:'{}'" json:"fields,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Profile) TableName() string { return "client_profile" }
