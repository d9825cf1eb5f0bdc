package chat

import (
	"time"

	"github.com/esaudezap/backend/internal/models"
)

// DefaultTitle is the title every session starts with; it is rewritten
// exactly once after the first exchange.
const DefaultTitle = "New Chat"

type Session struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID string  `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`
	UserID    uint64  `gorm:"index;not null" json:"-"`
	Title     string  `gorm:"type:varchar(255);not null" json:"title"`
	BotType   string  `gorm:"type:varchar(16);not null" json:"bot_type"`
	PromptID  *uint64 `gorm:"index" json:"prompt_id,omitempty"`

	// TitleGenerated guards the once-only title rewrite; it is written in
	// the same UPDATE as the title itself.
	TitleGenerated bool `gorm:"not null;default:false" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User     *models.User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Messages []Message    `gorm:"foreignKey:SessionID;references:SessionID" json:"messages,omitempty"`
}

func (Session) TableName() string { return "chat_sessions" }

type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"type:varchar(26);not null;index" json:"session_id"`
	Sender    string    `gorm:"type:varchar(16);not null" json:"sender"`
	UserID    *uint64   `gorm:"index" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	BotType   string    `gorm:"type:varchar(16)" json:"bot_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }

// BotPrompt is a named, reusable system prompt bound to a bot type. At most
// one prompt per bot type carries the default flag.
type BotPrompt struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	PromptName    string    `gorm:"type:varchar(128);not null;index:uniq_prompt_name,unique,priority:2" json:"prompt_name"`
	BotType       string    `gorm:"type:varchar(16);not null;index:uniq_prompt_name,unique,priority:1" json:"bot_type"`
	PromptContent string    `gorm:"type:text;not null" json:"prompt_content"`
	IsDefault     bool      `gorm:"not null;default:false;index" json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (BotPrompt) TableName() string { return "bot_prompts" }

// BotAPIKey stores one provider credential per bot type. APIKeyEnc is
// AES-GCM sealed; plaintext never reaches the database or listings.
type BotAPIKey struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	BotType   string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"bot_type"`
	APIKeyEnc string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BotAPIKey) TableName() string { return "bot_api_keys" }

type Evaluation struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"type:varchar(26);uniqueIndex;not null" json:"session_id"`
	UserID    uint64    `gorm:"index;not null" json:"-"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:varchar(500)" json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Evaluation) TableName() string { return "evaluations" }
