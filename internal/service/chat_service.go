package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
	"github.com/coreadability/coreadability-api/internal/domain/repository"
	apperrors "github.com/coreadability/coreadability-api/internal/pkg/errors"
	"github.com/coreadability/coreadability-api/internal/service/recommend"
	"github.com/coreadability/coreadability-api/pkg/logger"
)

// ChatReply is the response to one chat turn. Exactly one of Genres and Answer is set.
type ChatReply struct {
	SessionID string                `json:"session_id"`
	Genres    *recommend.TurnResult `json:"genres,omitempty"`
	Answer    *ChatAnswer           `json:"answer,omitempty"`
}

// ChatService runs the genre heuristic on each turn and forwards the rest to the chat backend
type ChatService struct {
	recommender *recommend.Service
	states      repository.SessionStateRepository
	backend     ChatBackend

	maxQuestionChars int
	log              zerolog.Logger
}

// NewChatService creates a new chat service
func NewChatService(recommender *recommend.Service, states repository.SessionStateRepository, backend ChatBackend, maxQuestionChars int) *ChatService {
	if maxQuestionChars <= 0 {
		maxQuestionChars = 500
	}
	return &ChatService{
		recommender:      recommender,
		states:           states,
		backend:          backend,
		maxQuestionChars: maxQuestionChars,
		log:              logger.Component("chat"),
	}
}

// Turn runs the heuristic only and stores the updated escalation state
func (s *ChatService) Turn(ctx context.Context, childID uint, sessionID, message, lastBotMessage string) (string, recommend.TurnResult, error) {
	message, err := s.validate(message)
	if err != nil {
		return "", recommend.TurnResult{}, err
	}
	sessionID = ensureSessionID(sessionID)

	state := s.loadState(ctx, childID, sessionID)
	result := s.recommender.ProcessTurn(ctx, &state, childID, message, lastBotMessage)
	s.saveState(ctx, childID, sessionID, state)

	return sessionID, result, nil
}

// SelectGenre resets the session's escalation after an explicit pick
func (s *ChatService) SelectGenre(ctx context.Context, childID uint, sessionID string) (string, error) {
	sessionID = ensureSessionID(sessionID)
	state := s.loadState(ctx, childID, sessionID)
	s.recommender.SelectGenre(&state)
	if err := s.states.Save(ctx, childID, sessionID, state); err != nil {
		return sessionID, fmt.Errorf("save session state: %w", err)
	}
	return sessionID, nil
}

// Ask answers locally with suggestions when the child seems unsure, otherwise asks the backend
func (s *ChatService) Ask(ctx context.Context, childID uint, sessionID, question, lastBotMessage string) (*ChatReply, error) {
	sessionID, result, err := s.Turn(ctx, childID, sessionID, question, lastBotMessage)
	if err != nil {
		return nil, err
	}
	if result.HasSuggestions() {
		return &ChatReply{SessionID: sessionID, Genres: &result}, nil
	}

	answer, err := s.backend.Ask(ctx, childID, strings.TrimSpace(question))
	if err != nil {
		s.log.Warn().Err(err).Uint("child_id", childID).Str("session_id", sessionID).Msg("chat backend unavailable")
		return nil, err
	}
	return &ChatReply{SessionID: sessionID, Answer: answer}, nil
}

func (s *ChatService) validate(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", apperrors.ErrValidation)
	}
	if utf8.RuneCountInString(message) > s.maxQuestionChars {
		return "", fmt.Errorf("%w: message is longer than %d characters", apperrors.ErrValidation, s.maxQuestionChars)
	}
	return message, nil
}

// loadState falls back to a fresh state when the store is unavailable
func (s *ChatService) loadState(ctx context.Context, childID uint, sessionID string) entity.UncertaintyState {
	state, err := s.states.Load(ctx, childID, sessionID)
	if err != nil {
		s.log.Warn().Err(err).Uint("child_id", childID).Str("session_id", sessionID).Msg("session state unavailable")
		return entity.UncertaintyState{}
	}
	return state
}

func (s *ChatService) saveState(ctx context.Context, childID uint, sessionID string, state entity.UncertaintyState) {
	if err := s.states.Save(ctx, childID, sessionID, state); err != nil {
		s.log.Warn().Err(err).Uint("child_id", childID).Str("session_id", sessionID).Msg("failed to save session state")
	}
}

func ensureSessionID(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return uuid.NewString()
	}
	return sessionID
}
