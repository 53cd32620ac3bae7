package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/magix-backend/internal/data/blob"
	"github.com/yungbote/magix-backend/internal/data/db"
	"github.com/yungbote/magix-backend/internal/data/repos"
	types "github.com/yungbote/magix-backend/internal/domain"
	"github.com/yungbote/magix-backend/internal/domain/chat"
	"github.com/yungbote/magix-backend/internal/observability"
	"github.com/yungbote/magix-backend/internal/platform/apierr"
	"github.com/yungbote/magix-backend/internal/platform/ctxutil"
	"github.com/yungbote/magix-backend/internal/platform/dbctx"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

type ConversationService interface {
	NewID() string
	Create(ctx context.Context, id, owner, title, llmName string, llmParams map[string]any) (*types.Conversation, error)
	Get(ctx context.Context, id string) (*types.Conversation, error)
	List(ctx context.Context, owner string, offset, limit int) ([]*types.Conversation, error)
	UpdateTitle(ctx context.Context, id, title string) error
	// UpdateSettings shallow-merges patch into the settings document, creating the
	// conversation when no document exists yet.
	UpdateSettings(ctx context.Context, id string, patch map[string]any, ownerHint string) (chat.Settings, error)
	GetSettings(ctx context.Context, id, ownerHint string) (chat.Settings, error)
	PostSettings(ctx context.Context, id, owner, title, llmName string, llmParams map[string]any) (chat.Settings, error)
	// ResolveOwner returns the blob folder owner for id.
	ResolveOwner(ctx context.Context, id, ownerHint string) (string, error)
}

type conversationService struct {
	log          *logger.Logger
	repo         repos.ConversationRepo
	blobs        blob.Store
	defaultOwner string
}

func NewConversationService(repo repos.ConversationRepo, blobs blob.Store, defaultOwner string, baseLog *logger.Logger) ConversationService {
	if strings.TrimSpace(defaultOwner) == "" {
		defaultOwner = chat.DefaultUserEmail
	}
	return &conversationService{
		log:          baseLog.With("service", "ConversationService"),
		repo:         repo,
		blobs:        blobs,
		defaultOwner: defaultOwner,
	}
}

func (s *conversationService) NewID() string {
	return uuid.New().String()
}

func persistenceError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*apierr.Error); ok {
		return err
	}
	if db.IsUniqueViolation(err) {
		return apierr.Persistence("Conversation already exists", err)
	}
	return apierr.Persistence("Database error occurred", err)
}

func (s *conversationService) Create(ctx context.Context, id, owner, title, llmName string, llmParams map[string]any) (*types.Conversation, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apierr.Validation("Missing argument")
	}
	raw, err := json.Marshal(llmParams)
	if err != nil {
		return nil, apierr.Validation("llm_params must be a JSON object")
	}
	row := &types.Conversation{
		ID:        id,
		UserEmail: owner,
		Title:     title,
		LLMName:   llmName,
		LLMParams: datatypes.JSON(raw),
	}
	created, err := s.repo.Create(dbctx.Context{Ctx: ctx}, row)
	if err != nil {
		s.log.Error("create conversation failed", "conversation_id", id, "error_type", db.ErrorType(err), "error", err)
		return nil, persistenceError(err)
	}
	return created, nil
}

func (s *conversationService) Get(ctx context.Context, id string) (*types.Conversation, error) {
	row, err := s.repo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, apierr.NotFound("Conversation not found", err)
		}
		return nil, persistenceError(err)
	}
	return row, nil
}

func (s *conversationService) List(ctx context.Context, owner string, offset, limit int) ([]*types.Conversation, error) {
	if offset < 0 {
		offset = 0
	}
	rows, err := s.repo.ListByOwner(dbctx.Context{Ctx: ctx}, owner, offset, limit)
	if err != nil {
		return nil, persistenceError(err)
	}
	return rows, nil
}

func (s *conversationService) UpdateTitle(ctx context.Context, id, title string) error {
	err := s.repo.UpdateFields(dbctx.Context{Ctx: ctx}, id, map[string]interface{}{"title": title})
	if err != nil {
		if db.IsNotFound(err) {
			return apierr.NotFound("Conversation not found", err)
		}
		return persistenceError(err)
	}
	return nil
}

func (s *conversationService) ResolveOwner(ctx context.Context, id, ownerHint string) (string, error) {
	row, err := s.repo.GetByID(dbctx.Context{Ctx: ctx}, id)
	switch {
	case err == nil && row.UserEmail != "":
		return row.UserEmail, nil
	case err != nil && !db.IsNotFound(err):
		return "", persistenceError(err)
	}
	if h := strings.TrimSpace(ownerHint); h != "" {
		return h, nil
	}
	if e := ctxutil.CallerEmail(ctx); e != "" {
		return e, nil
	}
	return s.defaultOwner, nil
}

func (s *conversationService) readSettings(ctx context.Context, owner, id string) (chat.Settings, bool, error) {
	out := chat.Settings{}
	found, err := blob.GetJSON(ctx, s.blobs, owner, id, chat.DocSettings, &out)
	if err != nil {
		observability.Current().IncBlobOp("get", chat.DocSettings, "error")
		return nil, false, apierr.Persistence("Storage error occurred", err)
	}
	observability.Current().IncBlobOp("get", chat.DocSettings, "ok")
	if !found || out == nil {
		return chat.Settings{}, false, nil
	}
	return out, true, nil
}

func (s *conversationService) writeSettings(ctx context.Context, owner, id string, settings chat.Settings) error {
	if err := blob.PutJSON(ctx, s.blobs, owner, id, chat.DocSettings, settings); err != nil {
		observability.Current().IncBlobOp("put", chat.DocSettings, "error")
		return apierr.Persistence("Storage error occurred", err)
	}
	observability.Current().IncBlobOp("put", chat.DocSettings, "ok")
	return nil
}

func (s *conversationService) GetSettings(ctx context.Context, id, ownerHint string) (chat.Settings, error) {
	owner, err := s.ResolveOwner(ctx, id, ownerHint)
	if err != nil {
		return nil, err
	}
	settings, _, err := s.readSettings(ctx, owner, id)
	return settings, err
}

func (s *conversationService) PostSettings(ctx context.Context, id, owner, title, llmName string, llmParams map[string]any) (chat.Settings, error) {
	if strings.TrimSpace(owner) == "" {
		owner = s.defaultOwner
	}
	if strings.TrimSpace(title) == "" {
		title = chat.DefaultTitle
	}
	if strings.TrimSpace(llmName) == "" {
		llmName = chat.DefaultLLMName
	}
	if len(llmParams) == 0 {
		llmParams = chat.DefaultLLMParams()
	}

	if _, err := s.Create(ctx, id, owner, title, llmName, llmParams); err != nil {
		return nil, err
	}
	settings := chat.NewSettings(id, owner, title, llmName, llmParams)
	if err := s.writeSettings(ctx, owner, id, settings); err != nil {
		s.log.Error("settings write failed after row insert", "conversation_id", id, "error", err)
		return nil, err
	}
	return settings, nil
}

func (s *conversationService) UpdateSettings(ctx context.Context, id string, patch map[string]any, ownerHint string) (chat.Settings, error) {
	owner, err := s.ResolveOwner(ctx, id, ownerHint)
	if err != nil {
		return nil, err
	}
	current, found, err := s.readSettings(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if !found {
		row, getErr := s.repo.GetByID(dbctx.Context{Ctx: ctx}, id)
		if getErr != nil && !db.IsNotFound(getErr) {
			return nil, persistenceError(getErr)
		}
		if row == nil {
			llmName, _ := patch["llm_name"].(string)
			params, _ := patch["llm_params"].(map[string]any)
			title, _ := patch["title"].(string)
			return s.PostSettings(ctx, id, owner, title, llmName, params)
		}
		// row exists but its document is gone: rebuild from the row
		var params map[string]any
		if len(row.LLMParams) > 0 {
			if err := json.Unmarshal(row.LLMParams, &params); err != nil {
				s.log.Warn("stored llm_params are not a JSON object; rebuilding without them", "conversation_id", id, "error", err)
				params = nil
			}
		}
		current = chat.NewSettings(row.ID, row.UserEmail, row.Title, row.LLMName, params)
		s.log.Warn("settings document missing for existing conversation; rebuilding", "conversation_id", id)
	}

	merged := current.Merge(patch)
	if err := s.writeSettings(ctx, owner, id, merged); err != nil {
		return nil, err
	}
	s.mirrorToRow(ctx, id, patch)
	return merged, nil
}

// mirrorToRow copies metadata keys of patch onto the relational row. Failures are logged only.
func (s *conversationService) mirrorToRow(ctx context.Context, id string, patch map[string]any) {
	updates := map[string]interface{}{}
	if v, ok := patch["title"].(string); ok {
		updates["title"] = v
	}
	if v, ok := patch["llm_name"].(string); ok {
		updates["llm_name"] = v
	}
	if v, ok := patch["llm_params"].(map[string]any); ok {
		if raw, err := json.Marshal(v); err == nil {
			updates["llm_params"] = datatypes.JSON(raw)
		}
	}
	if len(updates) == 0 {
		return
	}
	if err := s.repo.UpdateFields(dbctx.Context{Ctx: ctx}, id, updates); err != nil {
		s.log.Warn("mirror settings to conversation row failed", "conversation_id", id, "error", fmt.Sprint(err))
	}
}
