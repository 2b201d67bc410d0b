package dto

import "github.com/coreadability/coreadability-api/internal/domain/entity"

// GenreResponse is a catalog genre
type GenreResponse struct {
	ID   uint   `json:"gid"`
	Name string `json:"genrename"`
}

// NewGenreResponses converts catalog genres
func NewGenreResponses(genres []entity.Genre) []GenreResponse {
	out := make([]GenreResponse, len(genres))
	for i, g := range genres {
		out[i] = GenreResponse{ID: g.ID, Name: g.Name}
	}
	return out
}

// FavoriteGenresRequest replaces the child's favorites
type FavoriteGenresRequest struct {
	Genres []string `json:"genres" binding:"required"`
}

// FavoriteGenresResponse lists the child's favorites
type FavoriteGenresResponse struct {
	Genres []string `json:"genres"`
}

// BlockGenreRequest blocks a genre for a child
type BlockGenreRequest struct {
	GenreID uint `json:"genre_id" binding:"required"`
}

// TurnRequest is one chat turn for the genre heuristic or the chat proxy
type TurnRequest struct {
	SessionID      string `json:"session_id" binding:"max=64"`
	Message        string `json:"message"`
	Question       string `json:"question"`
	LastBotMessage string `json:"last_bot_message"`
}

// Text returns the child's message; "question" is accepted for the chat client
func (r TurnRequest) Text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Question
}

// SelectGenreRequest records an explicit genre pick
type SelectGenreRequest struct {
	SessionID string `json:"session_id" binding:"max=64"`
	Genre     string `json:"genre"`
}

// RandomGenresResponse lists randomly suggested genres
type RandomGenresResponse struct {
	Genres []string `json:"genres"`
}
