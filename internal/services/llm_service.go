package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/yungbote/magix-backend/internal/data/db"
	"github.com/yungbote/magix-backend/internal/data/repos"
	types "github.com/yungbote/magix-backend/internal/domain"
	"github.com/yungbote/magix-backend/internal/observability"
	"github.com/yungbote/magix-backend/internal/platform/apierr"
	"github.com/yungbote/magix-backend/internal/platform/dbctx"
	"github.com/yungbote/magix-backend/internal/platform/logger"
	"github.com/yungbote/magix-backend/internal/platform/redis"
)

const llmNotFoundDetail = "No LLM record found with the given name."

const llmStatusLookupTimeout = 10 * time.Second

type CreateLLMInput struct {
	Name        string         `json:"name" yaml:"name"`
	DisplayName string         `json:"display_name" yaml:"display_name"`
	Provider    string         `json:"provider" yaml:"provider"`
	ModelName   string         `json:"model_name" yaml:"model_name"`
	Version     string         `json:"version" yaml:"version"`
	Params      map[string]any `json:"params" yaml:"params"`
	IsActive    *bool          `json:"is_active,omitempty" yaml:"is_active"`
}

type LLMService interface {
	List(ctx context.Context) ([]*types.LLM, error)
	Create(ctx context.Context, in CreateLLMInput) (*types.LLM, error)
	UpdateActive(ctx context.Context, name string, active bool) error
	Delete(ctx context.Context, name string) error
	// IsActive reports the registry flag. found is false for unregistered names.
	IsActive(ctx context.Context, name string) (active bool, found bool, err error)
	SeedFromFile(ctx context.Context, path string) (int, error)
}

type llmService struct {
	log   *logger.Logger
	repo  repos.LLMRepo
	cache redis.LLMStatusCache
	group singleflight.Group
}

// NewLLMService wires the registry. cache may be nil.
func NewLLMService(repo repos.LLMRepo, cache redis.LLMStatusCache, baseLog *logger.Logger) LLMService {
	return &llmService{
		log:   baseLog.With("service", "LLMService"),
		repo:  repo,
		cache: cache,
	}
}

func (s *llmService) List(ctx context.Context) ([]*types.LLM, error) {
	rows, err := s.repo.List(dbctx.Context{Ctx: ctx})
	if err != nil {
		return nil, persistenceError(err)
	}
	return rows, nil
}

func (s *llmService) Create(ctx context.Context, in CreateLLMInput) (*types.LLM, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apierr.Validation("Missing argument")
	}
	params := in.Params
	if params == nil {
		params = map[string]any{}
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, apierr.Validation("params must be a JSON object")
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	row := &types.LLM{
		Name:        strings.TrimSpace(in.Name),
		DisplayName: in.DisplayName,
		Provider:    in.Provider,
		ModelName:   in.ModelName,
		Version:     in.Version,
		Params:      datatypes.JSON(raw),
		IsActive:    active,
	}
	created, err := s.repo.Create(dbctx.Context{Ctx: ctx}, row)
	if err != nil {
		s.log.Error("create llm failed", "name", row.Name, "error", err)
		if db.IsUniqueViolation(err) {
			return nil, apierr.Persistence("LLM already exists", err)
		}
		return nil, persistenceError(err)
	}
	s.invalidate(ctx, row.Name)
	return created, nil
}

func (s *llmService) UpdateActive(ctx context.Context, name string, active bool) error {
	if err := s.repo.UpdateActive(dbctx.Context{Ctx: ctx}, name, active); err != nil {
		if db.IsNotFound(err) {
			return apierr.NoRowsUpdated(llmNotFoundDetail)
		}
		return persistenceError(err)
	}
	s.invalidate(ctx, name)
	return nil
}

func (s *llmService) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(dbctx.Context{Ctx: ctx}, name); err != nil {
		if db.IsNotFound(err) {
			return apierr.NoRowsUpdated(llmNotFoundDetail)
		}
		return persistenceError(err)
	}
	s.invalidate(ctx, name)
	return nil
}

func (s *llmService) invalidate(ctx context.Context, name string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, name); err != nil {
		s.log.Warn("llm status cache invalidate failed", "name", name, "error", err)
	}
}

type llmStatus struct {
	active bool
	found  bool
}

func (s *llmService) IsActive(ctx context.Context, name string) (bool, bool, error) {
	if s.cache != nil {
		active, hit, err := s.cache.Get(ctx, name)
		if err != nil {
			s.log.Warn("llm status cache read failed", "name", name, "error", err)
		}
		if hit {
			observability.Current().IncLLMStatusCache("hit")
			return active, true, nil
		}
		observability.Current().IncLLMStatusCache("miss")
	}

	// The shared lookup must outlive any single caller, so it runs detached with
	// its own deadline; each caller still waits on its own ctx.
	ch := s.group.DoChan(name, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), llmStatusLookupTimeout)
		defer cancel()
		row, err := s.repo.GetByName(dbctx.Context{Ctx: lctx}, name)
		if err != nil {
			if db.IsNotFound(err) {
				return llmStatus{active: true, found: false}, nil
			}
			return nil, persistenceError(err)
		}
		if s.cache != nil {
			if err := s.cache.Set(lctx, name, row.IsActive); err != nil {
				s.log.Warn("llm status cache write failed", "name", name, "error", err)
			}
		}
		return llmStatus{active: row.IsActive, found: true}, nil
	})
	select {
	case <-ctx.Done():
		return false, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return false, false, res.Err
		}
		st := res.Val.(llmStatus)
		return st.active, st.found, nil
	}
}

type llmSeedFile struct {
	LLMs []CreateLLMInput `yaml:"llms"`
}

// SeedFromFile inserts registrations listed in a YAML file that are not yet present.
// Existing rows are left untouched.
func (s *llmService) SeedFromFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read llm seed file: %w", err)
	}
	var f llmSeedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("parse llm seed file: %w", err)
	}
	inserted := 0
	for _, in := range f.LLMs {
		if strings.TrimSpace(in.Name) == "" {
			continue
		}
		_, err := s.repo.GetByName(dbctx.Context{Ctx: ctx}, in.Name)
		if err == nil {
			continue
		}
		if !db.IsNotFound(err) {
			return inserted, err
		}
		if _, err := s.Create(ctx, in); err != nil {
			return inserted, err
		}
		inserted++
	}
	s.log.Info("llm registry seeded", "path", path, "inserted", inserted, "listed", len(f.LLMs))
	return inserted, nil
}
