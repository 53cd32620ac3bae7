package user

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	types "github.com/yungbote/magix-backend/internal/domain"
	"github.com/yungbote/magix-backend/internal/platform/dbctx"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

type UserRepo interface {
	List(dbc dbctx.Context) ([]*types.User, error)
	Create(dbc dbctx.Context, user *types.User) (*types.User, error)
	GetByUsername(dbc dbctx.Context, username string) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	UsernameExists(dbc dbctx.Context, username string) (bool, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (ur *userRepo) tx(dbc dbctx.Context) *gorm.DB {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = ur.db
	}
	return transaction.WithContext(dbc.Ctx)
}

func (ur *userRepo) List(dbc dbctx.Context) ([]*types.User, error) {
	results := []*types.User{}
	if err := ur.tx(dbc).Order("created_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) Create(dbc dbctx.Context, user *types.User) (*types.User, error) {
	if user == nil || strings.TrimSpace(user.Username) == "" {
		return nil, fmt.Errorf("missing username")
	}
	if err := ur.tx(dbc).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (ur *userRepo) GetByUsername(dbc dbctx.Context, username string) (*types.User, error) {
	var out types.User
	if err := ur.tx(dbc).Where("username = ?", username).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByEmail returns the oldest user registered with the email.
func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	var out types.User
	if err := ur.tx(dbc).
		Where("email = ?", email).
		Order("created_at ASC").
		First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (ur *userRepo) UsernameExists(dbc dbctx.Context, username string) (bool, error) {
	var count int64
	if err := ur.tx(dbc).
		Model(&types.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
