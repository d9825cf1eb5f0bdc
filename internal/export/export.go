// Package export renders the full session+message archive for the admin
// console, as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/esaudezap/backend/internal/chat"
)

type SessionRecord struct {
	SessionID string          `json:"session_id"`
	UserEmail string          `json:"user_email"`
	Title     string          `json:"title"`
	BotType   string          `json:"bot_type"`
	CreatedAt time.Time       `json:"created_at"`
	Messages  []MessageRecord `json:"messages"`
}

type MessageRecord struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	BotType   string    `json:"bot_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Build flattens preloaded sessions into export records.
func Build(sessions []chat.Session) []SessionRecord {
	out := make([]SessionRecord, 0, len(sessions))
	for _, s := range sessions {
		rec := SessionRecord{
			SessionID: s.SessionID,
			Title:     s.Title,
			BotType:   s.BotType,
			CreatedAt: s.CreatedAt,
		}
		if s.User != nil {
			rec.UserEmail = s.User.Email
		}
		for _, m := range s.Messages {
			rec.Messages = append(rec.Messages, MessageRecord{
				Sender:    m.Sender,
				Content:   m.Content,
				BotType:   m.BotType,
				CreatedAt: m.CreatedAt,
			})
		}
		out = append(out, rec)
	}
	return out
}

var csvHeader = []string{
	"session_id", "user_email", "title", "bot_type",
	"message_sender", "message_bot_type", "message_content", "message_created_at",
}

// WriteCSV writes one row per message, session columns repeated. Sessions
// without messages still contribute one row so they appear in the export.
func WriteCSV(w io.Writer, records []SessionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range records {
		if len(s.Messages) == 0 {
			if err := cw.Write([]string{s.SessionID, s.UserEmail, s.Title, s.BotType, "", "", "", ""}); err != nil {
				return err
			}
			continue
		}
		for _, m := range s.Messages {
			row := []string{
				s.SessionID, s.UserEmail, s.Title, s.BotType,
				m.Sender, m.BotType, m.Content, m.CreatedAt.Format(time.RFC3339),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}
	return nil
}

// WriteJSON writes the archive as an indented JSON array.
func WriteJSON(w io.Writer, records []SessionRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("export: write json: %w", err)
	}
	return nil
}
