package llm

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/magix-backend/internal/domain"
	"github.com/yungbote/magix-backend/internal/platform/dbctx"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

type LLMRepo interface {
	List(dbc dbctx.Context) ([]*types.LLM, error)
	Create(dbc dbctx.Context, row *types.LLM) (*types.LLM, error)
	GetByName(dbc dbctx.Context, name string) (*types.LLM, error)
	UpdateActive(dbc dbctx.Context, name string, isActive bool) error
	Delete(dbc dbctx.Context, name string) error
}

type llmRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLLMRepo(db *gorm.DB, log *logger.Logger) LLMRepo {
	return &llmRepo{db: db, log: log.With("repo", "LLMRepo")}
}

func (r *llmRepo) tx(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}

func (r *llmRepo) List(dbc dbctx.Context) ([]*types.LLM, error) {
	out := []*types.LLM{}
	if err := r.tx(dbc).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *llmRepo) Create(dbc dbctx.Context, row *types.LLM) (*types.LLM, error) {
	if row == nil || strings.TrimSpace(row.Name) == "" {
		return nil, fmt.Errorf("missing llm name")
	}
	if err := r.tx(dbc).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *llmRepo) GetByName(dbc dbctx.Context, name string) (*types.LLM, error) {
	var out types.LLM
	if err := r.tx(dbc).Where("name = ?", name).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateActive returns gorm.ErrRecordNotFound when no row matches.
func (r *llmRepo) UpdateActive(dbc dbctx.Context, name string, isActive bool) error {
	res := r.tx(dbc).
		Model(&types.LLM{}).
		Where("name = ?", name).
		Update("is_active", isActive)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete returns gorm.ErrRecordNotFound when no row matches.
func (r *llmRepo) Delete(dbc dbctx.Context, name string) error {
	res := r.tx(dbc).Where("name = ?", name).Delete(&types.LLM{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
