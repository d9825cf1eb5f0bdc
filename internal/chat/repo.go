package chat

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// DB exposes the handle for callers that need raw queries (admin surface).
func (r *Repo) DB() *gorm.DB { return r.db }

// Sessions

func (r *Repo) CreateSession(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) GetSessionBySessionID(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *Repo) ListSessionsByUser(ctx context.Context, userID uint64) ([]Session, error) {
	var out []Session
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListAllSessions returns every session with its owner populated, newest
// first. Admin surface only.
func (r *Repo) ListAllSessions(ctx context.Context) ([]Session, error) {
	var out []Session
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListAllSessionsWithMessages preloads messages for the export surface.
func (r *Repo) ListAllSessionsWithMessages(ctx context.Context) ([]Session, error) {
	var out []Session
	if err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) UpdateSessionBotType(ctx context.Context, sessionID, botType string) error {
	return r.db.WithContext(ctx).Model(&Session{}).
		Where("session_id = ?", sessionID).
		Update("bot_type", botType).Error
}

func (r *Repo) TouchSession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Model(&Session{}).
		Where("session_id = ?", sessionID).
		Update("updated_at", time.Now()).Error
}

// SetTitleOnce writes the generated title together with the guard flag in a
// single UPDATE. It reports whether the write happened; a false return
// means another exchange already claimed the rewrite.
func (r *Repo) SetTitleOnce(ctx context.Context, sessionID, title string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Session{}).
		Where("session_id = ? AND title_generated = ?", sessionID, false).
		Updates(map[string]any{"title": title, "title_generated": true})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Messages

func (r *Repo) InsertMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// ListMessages returns a session's messages oldest first.
func (r *Repo) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	var out []Message
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CountMessages(ctx context.Context, sessionID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Message{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Prompts

// CreatePrompt inserts a prompt; when it carries the default flag, any
// previous default for the same bot type loses it in the same transaction.
func (r *Repo) CreatePrompt(ctx context.Context, p *BotPrompt) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.IsDefault {
			if err := tx.Model(&BotPrompt{}).
				Where("bot_type = ? AND is_default = ?", p.BotType, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(p).Error
	})
}

func (r *Repo) UpdatePrompt(ctx context.Context, p *BotPrompt) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing BotPrompt
		if err := tx.First(&existing, p.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPromptNotFound
			}
			return err
		}
		if p.IsDefault {
			if err := tx.Model(&BotPrompt{}).
				Where("bot_type = ? AND is_default = ? AND id <> ?", p.BotType, true, p.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Model(&BotPrompt{}).Where("id = ?", p.ID).
			Updates(map[string]any{
				"prompt_name":    p.PromptName,
				"bot_type":       p.BotType,
				"prompt_content": p.PromptContent,
				"is_default":     p.IsDefault,
			}).Error
	})
}

// DeletePrompt refuses to remove the only default prompt of a bot type.
func (r *Repo) DeletePrompt(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p BotPrompt
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPromptNotFound
			}
			return err
		}
		if p.IsDefault {
			var defaults int64
			if err := tx.Model(&BotPrompt{}).
				Where("bot_type = ? AND is_default = ?", p.BotType, true).
				Count(&defaults).Error; err != nil {
				return err
			}
			if defaults <= 1 {
				return ErrLastDefaultPrompt
			}
		}
		return tx.Delete(&BotPrompt{}, id).Error
	})
}

func (r *Repo) ListPrompts(ctx context.Context) ([]BotPrompt, error) {
	var out []BotPrompt
	if err := r.db.WithContext(ctx).
		Order("bot_type ASC, prompt_name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetPrompt(ctx context.Context, id uint64) (*BotPrompt, error) {
	var p BotPrompt
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromptNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *Repo) GetDefaultPrompt(ctx context.Context, botType string) (*BotPrompt, error) {
	var p BotPrompt
	if err := r.db.WithContext(ctx).
		Where("bot_type = ? AND is_default = ?", botType, true).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromptNotFound
		}
		return nil, err
	}
	return &p, nil
}

// API keys

// UpsertAPIKey stores the sealed key for a bot type, one row per type.
func (r *Repo) UpsertAPIKey(ctx context.Context, botType, sealedKey string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing BotAPIKey
		err := tx.Where("bot_type = ?", botType).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&BotAPIKey{BotType: botType, APIKeyEnc: sealedKey}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&BotAPIKey{}).Where("id = ?", existing.ID).
			Update("api_key_enc", sealedKey).Error
	})
}

func (r *Repo) GetAPIKey(ctx context.Context, botType string) (*BotAPIKey, error) {
	var k BotAPIKey
	if err := r.db.WithContext(ctx).
		Where("bot_type = ?", botType).
		First(&k).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return &k, nil
}

func (r *Repo) DeleteAPIKey(ctx context.Context, botType string) error {
	res := r.db.WithContext(ctx).
		Where("bot_type = ?", botType).
		Delete(&BotAPIKey{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrKeyNotFound
	}
	return nil
}

func (r *Repo) ListAPIKeys(ctx context.Context) ([]BotAPIKey, error) {
	var out []BotAPIKey
	if err := r.db.WithContext(ctx).Order("bot_type ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Evaluations

func (r *Repo) CreateEvaluation(ctx context.Context, e *Evaluation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&Evaluation{}).
			Where("session_id = ?", e.SessionID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrEvaluationExists
		}
		return tx.Create(e).Error
	})
}

func (r *Repo) GetEvaluationBySession(ctx context.Context, sessionID string) (*Evaluation, error) {
	var e Evaluation
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEvaluationNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *Repo) ListEvaluationsBySession(ctx context.Context, sessionID string) ([]Evaluation, error) {
	var out []Evaluation
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
