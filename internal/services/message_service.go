package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/yungbote/magix-backend/internal/data/blob"
	"github.com/yungbote/magix-backend/internal/domain/chat"
	"github.com/yungbote/magix-backend/internal/observability"
	"github.com/yungbote/magix-backend/internal/platform/apierr"
	"github.com/yungbote/magix-backend/internal/platform/llm"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

// Pipeline states, in order. Any state may end in stateFailed.
const (
	stateLookup         = "lookup"
	stateTitleBootstrap = "title_bootstrap"
	stateSettingsLoad   = "settings_load"
	stateLLMActiveCheck = "llm_active_check"
	stateDispatch       = "dispatch"
	stateStream         = "stream_accumulate"
	statePersist        = "persist"
	stateDone           = "done"
	stateFailed         = "failed"
)

const titlePrompt = `Generate a conversation title for the given prompt. This prompt is
supposed to be the first message sent by a user to a chat bot.
Follow these guidelines,
1. Title should be less than 7 words
2. Do not use any punctuation marks in the response
3. If the prompt does not have enough context then respond with - Untitled Chat
4. Always format your response as follows - Title: <generated title>
where <generated title> should be your response.
`

const titleMaxWords = 7

type PostMessageInput struct {
	ConversationID string
	// OwnerHint is used only when the conversation has no relational row yet.
	OwnerHint string
	Role      string
	Message   string
	Stream    bool
}

// ChunkSink receives each output chunk as it is produced.
type ChunkSink func(chat.Message) error

// ProviderSet resolves an LLM name to a client.
type ProviderSet interface {
	Get(name string) (llm.Client, bool)
}

type MessageService interface {
	GetMessages(ctx context.Context, conversationID, ownerHint string) (chat.Transcript, error)
	PostMessage(ctx context.Context, in PostMessageInput, sink ChunkSink) error
	GenerateTitle(ctx context.Context, prompt string) string
}

type messageService struct {
	log           *logger.Logger
	conversations ConversationService
	llms          LLMService
	providers     ProviderSet
	blobs         blob.Store
}

func NewMessageService(conversations ConversationService, llms LLMService, providers ProviderSet, blobs blob.Store, baseLog *logger.Logger) MessageService {
	return &messageService{
		log:           baseLog.With("service", "MessageService"),
		conversations: conversations,
		llms:          llms,
		providers:     providers,
		blobs:         blobs,
	}
}

func (s *messageService) readTranscript(ctx context.Context, owner, id string) (chat.Transcript, error) {
	var t chat.Transcript
	if _, err := blob.GetJSON(ctx, s.blobs, owner, id, chat.DocTranscript, &t); err != nil {
		observability.Current().IncBlobOp("get", chat.DocTranscript, "error")
		return nil, apierr.Persistence("Storage error occurred", err)
	}
	observability.Current().IncBlobOp("get", chat.DocTranscript, "ok")
	if t == nil {
		t = chat.Transcript{}
	}
	return t, nil
}

func (s *messageService) writeTranscript(ctx context.Context, owner, id string, t chat.Transcript) error {
	if err := blob.PutJSON(ctx, s.blobs, owner, id, chat.DocTranscript, t); err != nil {
		observability.Current().IncBlobOp("put", chat.DocTranscript, "error")
		return apierr.Persistence("Storage error occurred", err)
	}
	observability.Current().IncBlobOp("put", chat.DocTranscript, "ok")
	return nil
}

func (s *messageService) GetMessages(ctx context.Context, conversationID, ownerHint string) (chat.Transcript, error) {
	owner, err := s.conversations.ResolveOwner(ctx, conversationID, ownerHint)
	if err != nil {
		return nil, err
	}
	return s.readTranscript(ctx, owner, conversationID)
}

// PostMessage runs one chat turn. The sink sees every chunk before anything is persisted.
// Role and Message are taken as given; an empty message is still a turn.
func (s *messageService) PostMessage(ctx context.Context, in PostMessageInput, sink ChunkSink) (err error) {
	id := in.ConversationID
	state := stateLookup
	log := s.log.With("conversation_id", id, "stream", in.Stream)
	defer func() {
		if err != nil {
			log.Error("message pipeline failed", "state", state, "error", err)
			observability.Current().IncPipeline(state, stateFailed)
			return
		}
		observability.Current().IncPipeline(state, stateDone)
	}()

	// LOOKUP
	conv, err := s.conversations.Get(ctx, id)
	if err != nil && !apierr.IsNotFound(err) {
		return err
	}
	exists := err == nil
	owner, err := s.conversations.ResolveOwner(ctx, id, in.OwnerHint)
	if err != nil {
		return err
	}
	if !exists {
		s.detectDrift(ctx, log, owner, id)
	}

	// TITLE_BOOTSTRAP
	state = stateTitleBootstrap
	switch {
	case exists && conv.Title == chat.DefaultTitle:
		title := s.GenerateTitle(ctx, in.Message)
		if err = s.conversations.UpdateTitle(ctx, id, title); err != nil {
			return err
		}
		if _, err = s.conversations.UpdateSettings(ctx, id, map[string]any{"title": title}, owner); err != nil {
			return err
		}
	case !exists:
		title := s.GenerateTitle(ctx, in.Message)
		if _, err = s.conversations.PostSettings(ctx, id, owner, title, "", nil); err != nil {
			return err
		}
	}

	// SETTINGS_LOAD
	state = stateSettingsLoad
	settings, err := s.conversations.GetSettings(ctx, id, owner)
	if err != nil {
		return err
	}
	llmName := settings.LLMName()
	if llmName == "" {
		llmName = chat.DefaultLLMName
	}
	params := llm.ParamsFromMap(settings.LLMParams())

	// LLM_ACTIVE_CHECK
	state = stateLLMActiveCheck
	active, found, err := s.llms.IsActive(ctx, llmName)
	if err != nil {
		return err
	}
	if !found {
		log.Debug("llm not registered; treating as active", "llm_name", llmName)
	}
	if !active {
		state = stateDone
		return sink(chat.Message{Role: chat.RoleSystem, Message: chat.DisabledLLMMessage})
	}

	// DISPATCH
	state = stateDispatch
	client, ok := s.providers.Get(llmName)
	if !ok {
		return apierr.Upstream("No LLM provider configured", fmt.Errorf("no client for %q and no default", llmName))
	}
	transcript, err := s.readTranscript(ctx, owner, id)
	if err != nil {
		return err
	}
	userTurn := chat.Message{Role: in.Role, Message: in.Message}

	// STREAM_ACCUMULATE (+ PERSIST per chunk when not streaming)
	state = stateStream
	var full strings.Builder
	history := append(chat.Transcript(nil), transcript...)
	err = client.Generate(ctx, history, in.Message, params, in.Stream, func(f llm.Fragment) error {
		if in.Stream {
			full.WriteString(f.Message)
			return sink(f)
		}
		transcript = append(transcript, userTurn, f)
		if werr := s.writeTranscript(ctx, owner, id, transcript); werr != nil {
			return werr
		}
		return sink(f)
	})
	if err != nil {
		return err
	}

	// PERSIST
	state = statePersist
	if in.Stream {
		transcript = append(transcript, userTurn, chat.Message{Role: chat.RoleSystem, Message: full.String()})
		if err = s.writeTranscript(ctx, owner, id, transcript); err != nil {
			return err
		}
	}
	state = stateDone
	log.Debug("message pipeline done", "llm_name", llmName, "model", client.ModelName(), "transcript_len", len(transcript))
	return nil
}

// detectDrift logs when a conversation folder exists in the blob store without a relational row.
func (s *messageService) detectDrift(ctx context.Context, log *logger.Logger, owner, id string) {
	ids, err := s.blobs.ListConversationIDs(ctx, owner)
	if err != nil {
		log.Warn("blob folder scan failed", "error", err)
		return
	}
	for _, existing := range ids {
		if existing == id {
			log.Warn("conversation folder present without relational row; relational store wins")
			return
		}
	}
}

// GenerateTitle asks the default provider for a short title. It never fails;
// any problem yields the default title.
func (s *messageService) GenerateTitle(ctx context.Context, prompt string) string {
	client, ok := s.providers.Get(chat.DefaultLLMName)
	if !ok {
		return chat.DefaultTitle
	}
	var raw strings.Builder
	err := client.Generate(ctx, nil, titlePrompt+"\n Prompt: "+prompt, llm.Params{Temperature: 0.1, MaxTokens: 15}, false, func(f llm.Fragment) error {
		raw.WriteString(f.Message)
		return nil
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Warn("title generation failed", "error", err)
		}
		return chat.DefaultTitle
	}
	return parseTitle(raw.String())
}

func parseTitle(raw string) string {
	i := strings.Index(raw, ": ")
	if i < 0 {
		return chat.DefaultTitle
	}
	rest := raw[i+2:]
	// only the segment up to the next separator is the title
	if j := strings.Index(rest, ": "); j >= 0 {
		rest = rest[:j]
	}
	rest = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(rest)
	rest = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, rest)
	words := strings.Fields(rest)
	if len(words) == 0 {
		return chat.DefaultTitle
	}
	if len(words) > titleMaxWords {
		words = words[:titleMaxWords]
	}
	return strings.Join(words, " ")
}
