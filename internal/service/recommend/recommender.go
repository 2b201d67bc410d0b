// Package recommend decides when to surface genre suggestions to a child
// who seems unsure what to ask the chat assistant for.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreadability/coreadability-api/internal/domain/entity"
	"github.com/coreadability/coreadability-api/internal/domain/repository"
	"github.com/coreadability/coreadability-api/internal/metrics"
	apperrors "github.com/coreadability/coreadability-api/internal/pkg/errors"
	"github.com/coreadability/coreadability-api/pkg/logger"
)

const catalogCacheKey = "genres:catalog"

// TurnKind classifies a processed chat turn
type TurnKind string

const (
	TurnNone      TurnKind = "none"
	TurnUncertain TurnKind = "uncertain"
	TurnNewGenres TurnKind = "new_genres"
)

// TurnResult is the decision for one chat turn
type TurnResult struct {
	Kind      TurnKind `json:"kind"`
	Favorites []string `json:"favorites"`
	Random    []string `json:"random"`
}

// HasSuggestions reports whether anything should be shown instead of calling the chat backend
func (r TurnResult) HasSuggestions() bool {
	return r.Kind != TurnNone
}

// Options configures the recommender
type Options struct {
	UncertaintyThreshold int
	RandomGenreCount     int
	CatalogCacheTTL      time.Duration
}

// Service implements the genre recommendation heuristic and the genre preferences around it
type Service struct {
	genres  repository.GenreRepository
	blocked repository.BlockedGenreRepository
	details repository.ChildDetailsRepository
	relRepo repository.ParentChildRepository
	cache   repository.CacheRepository

	opts    Options
	shuffle func(n int, swap func(i, j int))
	now     func() time.Time
	log     zerolog.Logger
}

// NewService creates a recommendation service
func NewService(
	genres repository.GenreRepository,
	blocked repository.BlockedGenreRepository,
	details repository.ChildDetailsRepository,
	relRepo repository.ParentChildRepository,
	cache repository.CacheRepository,
	opts Options,
) *Service {
	if opts.UncertaintyThreshold < 1 {
		opts.UncertaintyThreshold = 2
	}
	if opts.RandomGenreCount < 1 {
		opts.RandomGenreCount = 3
	}
	if opts.CatalogCacheTTL <= 0 {
		opts.CatalogCacheTTL = 10 * time.Minute
	}
	return &Service{
		genres:  genres,
		blocked: blocked,
		details: details,
		relRepo: relRepo,
		cache:   cache,
		opts:    opts,
		shuffle: rand.Shuffle,
		now:     time.Now,
		log:     logger.Component("recommend"),
	}
}

// ProcessTurn inspects one chat turn and updates the session's escalation state in place
func (s *Service) ProcessTurn(ctx context.Context, state *entity.UncertaintyState, childID uint, userMsg, lastBotMsg string) TurnResult {
	// an explicit request for other genres wins over plain uncertainty
	if DetectNewGenresRequest(userMsg) {
		state.Increment()
		favorites := s.favorites(ctx, childID)
		random := s.GetRandomGenres(ctx, childID, s.opts.RandomGenreCount, favorites)
		metrics.GenreSuggestions.WithLabelValues("random").Add(float64(len(random)))
		return TurnResult{Kind: TurnNewGenres, Favorites: []string{}, Random: random}
	}

	uncertain := DetectUserUncertainty(userMsg) ||
		IsPredefinedUncertainQuestion(userMsg) ||
		(DetectBotInvitation(lastBotMsg) && isInvitationReply(userMsg))
	if !uncertain {
		state.Reset(s.now())
		return TurnResult{Kind: TurnNone, Favorites: []string{}, Random: []string{}}
	}

	state.Increment()
	result := TurnResult{Kind: TurnUncertain, Favorites: s.favorites(ctx, childID), Random: []string{}}
	metrics.GenreSuggestions.WithLabelValues("favorites").Add(float64(len(result.Favorites)))

	if state.Count >= s.opts.UncertaintyThreshold {
		result.Random = s.GetRandomGenres(ctx, childID, s.opts.RandomGenreCount, result.Favorites)
		metrics.GenreSuggestions.WithLabelValues("random").Add(float64(len(result.Random)))
	}
	return result
}

// SelectGenre resets the escalation after the child picked a genre
func (s *Service) SelectGenre(state *entity.UncertaintyState) {
	state.Reset(s.now())
}

// GetRandomGenres picks up to count genre names that are neither blocked for the child
// nor in excluded (case-insensitive). Errors are logged and yield an empty list.
func (s *Service) GetRandomGenres(ctx context.Context, childID uint, count int, excluded []string) []string {
	if childID == 0 || count <= 0 {
		return []string{}
	}

	catalog, err := s.catalog(ctx)
	if err != nil {
		s.log.Error().Err(err).Uint("child_id", childID).Msg("failed to load genre catalog")
		return []string{}
	}
	blockedIDs, err := s.blocked.ListIDs(ctx, childID)
	if err != nil {
		s.log.Error().Err(err).Uint("child_id", childID).Msg("failed to load blocked genres")
		return []string{}
	}

	candidates := filterGenres(catalog, blockedIDs, excluded)
	s.shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > count {
		candidates = candidates[:count]
	}

	names := make([]string, len(candidates))
	for i, g := range candidates {
		names[i] = g.Name
	}
	return names
}

func filterGenres(catalog []entity.Genre, blockedIDs []uint, excluded []string) []entity.Genre {
	blocked := make(map[uint]struct{}, len(blockedIDs))
	for _, id := range blockedIDs {
		blocked[id] = struct{}{}
	}
	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[entity.NormalizeGenreName(name)] = struct{}{}
	}

	out := make([]entity.Genre, 0, len(catalog))
	for _, g := range catalog {
		if _, ok := blocked[g.ID]; ok {
			continue
		}
		if _, ok := skip[entity.NormalizeGenreName(g.Name)]; ok {
			continue
		}
		out = append(out, g)
	}
	return out
}

// favorites returns the child's stored favorites minus blocked genres; errors yield an empty list
func (s *Service) favorites(ctx context.Context, childID uint) []string {
	if childID == 0 {
		return []string{}
	}
	names, err := s.details.GetFavoriteGenres(ctx, childID)
	if err != nil {
		s.log.Error().Err(err).Uint("child_id", childID).Msg("failed to load favorite genres")
		return []string{}
	}
	if len(names) == 0 {
		return []string{}
	}

	allowed, err := s.ListGenres(ctx, childID)
	if err != nil {
		s.log.Warn().Err(err).Uint("child_id", childID).Msg("could not filter favorites by blocked genres")
		return names
	}
	byName := make(map[string]struct{}, len(allowed))
	for _, g := range allowed {
		byName[entity.NormalizeGenreName(g.Name)] = struct{}{}
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := byName[entity.NormalizeGenreName(n)]; ok {
			out = append(out, n)
		}
	}
	return out
}

// catalog reads the genre list through the cache; cache failures fall through to the database
func (s *Service) catalog(ctx context.Context) ([]entity.Genre, error) {
	var cached []entity.Genre
	err := s.cache.GetJSON(ctx, catalogCacheKey, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.log.Warn().Err(err).Msg("genre catalog cache read failed")
	}

	list, err := s.genres.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, catalogCacheKey, list, s.opts.CatalogCacheTTL); err != nil {
		s.log.Warn().Err(err).Msg("genre catalog cache write failed")
	}
	return list, nil
}

// ListGenres returns the catalog the child may see; childID 0 returns the full catalog
func (s *Service) ListGenres(ctx context.Context, childID uint) ([]entity.Genre, error) {
	catalog, err := s.catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("genre catalog: %w", err)
	}
	if childID == 0 {
		return catalog, nil
	}
	blockedIDs, err := s.blocked.ListIDs(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("blocked genres of child %d: %w", childID, err)
	}
	return filterGenres(catalog, blockedIDs, nil), nil
}

// GetFavoriteGenres returns the child's stored favorites
func (s *Service) GetFavoriteGenres(ctx context.Context, childID uint) ([]string, error) {
	names, err := s.details.GetFavoriteGenres(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("favorite genres of child %d: %w", childID, err)
	}
	return names, nil
}

// SetFavoriteGenres stores 1 to 3 distinct catalog genres the child is allowed to see
func (s *Service) SetFavoriteGenres(ctx context.Context, childID uint, names []string) ([]string, error) {
	allowed, err := s.ListGenres(ctx, childID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(allowed))
	for _, g := range allowed {
		byName[entity.NormalizeGenreName(g.Name)] = g.Name
	}

	seen := make(map[string]struct{}, len(names))
	canonical := make([]string, 0, len(names))
	for _, n := range names {
		key := entity.NormalizeGenreName(n)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		name, ok := byName[key]
		if !ok {
			return nil, fmt.Errorf("%w: unknown or blocked genre %q", apperrors.ErrValidation, strings.TrimSpace(n))
		}
		seen[key] = struct{}{}
		canonical = append(canonical, name)
	}

	if len(canonical) == 0 || len(canonical) > entity.MaxFavoriteGenres {
		return nil, fmt.Errorf("%w: choose between 1 and %d genres", apperrors.ErrValidation, entity.MaxFavoriteGenres)
	}

	if err := s.details.SaveFavoriteGenres(ctx, childID, canonical); err != nil {
		return nil, fmt.Errorf("save favorite genres of child %d: %w", childID, err)
	}
	return canonical, nil
}

// ListBlockedGenres returns the genres a parent blocked for their child
func (s *Service) ListBlockedGenres(ctx context.Context, parentID, childID uint) ([]entity.Genre, error) {
	if err := s.ensureParent(ctx, parentID, childID); err != nil {
		return nil, err
	}
	catalog, err := s.catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("genre catalog: %w", err)
	}
	ids, err := s.blocked.ListIDs(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("blocked genres of child %d: %w", childID, err)
	}

	blocked := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		blocked[id] = struct{}{}
	}
	out := make([]entity.Genre, 0, len(ids))
	for _, g := range catalog {
		if _, ok := blocked[g.ID]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// BlockGenre disallows a genre for a parent's child
func (s *Service) BlockGenre(ctx context.Context, parentID, childID, genreID uint) error {
	if err := s.ensureParent(ctx, parentID, childID); err != nil {
		return err
	}
	if _, err := s.genres.GetByID(ctx, genreID); err != nil {
		return fmt.Errorf("genre %d: %w", genreID, err)
	}
	if err := s.blocked.Block(ctx, childID, genreID); err != nil {
		return fmt.Errorf("block genre %d for child %d: %w", genreID, childID, err)
	}
	s.log.Info().Uint("parent_id", parentID).Uint("child_id", childID).Uint("genre_id", genreID).Msg("genre blocked")
	return nil
}

// UnblockGenre allows a previously blocked genre again
func (s *Service) UnblockGenre(ctx context.Context, parentID, childID, genreID uint) error {
	if err := s.ensureParent(ctx, parentID, childID); err != nil {
		return err
	}
	if err := s.blocked.Unblock(ctx, childID, genreID); err != nil {
		return fmt.Errorf("unblock genre %d for child %d: %w", genreID, childID, err)
	}
	return nil
}

func (s *Service) ensureParent(ctx context.Context, parentID, childID uint) error {
	if _, err := s.relRepo.GetByParentAndChild(ctx, parentID, childID); err != nil {
		return fmt.Errorf("child %d of parent %d: %w", childID, parentID, err)
	}
	return nil
}
