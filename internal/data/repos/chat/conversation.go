package chat

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/magix-backend/internal/domain"
	"github.com/yungbote/magix-backend/internal/platform/dbctx"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

type ConversationRepo interface {
	Create(dbc dbctx.Context, row *types.Conversation) (*types.Conversation, error)
	GetByID(dbc dbctx.Context, id string) (*types.Conversation, error)
	ListByOwner(dbc dbctx.Context, owner string, offset, limit int) ([]*types.Conversation, error)
	UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: log.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) tx(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}

func (r *conversationRepo) Create(dbc dbctx.Context, row *types.Conversation) (*types.Conversation, error) {
	if row == nil || strings.TrimSpace(row.ID) == "" {
		return nil, fmt.Errorf("missing conversation id")
	}
	if err := r.tx(dbc).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// GetByID returns gorm.ErrRecordNotFound when the id is unknown.
func (r *conversationRepo) GetByID(dbc dbctx.Context, id string) (*types.Conversation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("missing conversation id")
	}
	var out types.Conversation
	if err := r.tx(dbc).Where("id = ?", id).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// ListByOwner orders newest first and applies offset/limit after ordering.
// A non-positive limit returns every remaining row.
func (r *conversationRepo) ListByOwner(dbc dbctx.Context, owner string, offset, limit int) ([]*types.Conversation, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, fmt.Errorf("missing owner")
	}
	if offset < 0 {
		offset = 0
	}
	q := r.tx(dbc).
		Model(&types.Conversation{}).
		Where("user_email = ?", owner).
		Order("created_at DESC").
		Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	out := []*types.Conversation{}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conversationRepo) UpdateFields(dbc dbctx.Context, id string, updates map[string]interface{}) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("missing conversation id")
	}
	if len(updates) == 0 {
		return nil
	}
	res := r.tx(dbc).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
