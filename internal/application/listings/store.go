package listings

import (
	"context"
	"sort"
	"sync"

	"techtrust-backend/internal/domain"
	"techtrust-backend/internal/infrastructure/gateway"
	"techtrust-backend/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Store holds the listings snapshot and the shared browse params. Local state changes
// only after the backend confirms a write.
type Store struct {
	gw gateway.Gateway

	mu     sync.RWMutex
	all    []domain.Listing
	params Params
}

func NewStore(gw gateway.Gateway) *Store {
	return &Store{gw: gw, all: []domain.Listing{}, params: DefaultParams()}
}

// Refresh replaces the snapshot with every row in the backend.
func (s *Store) Refresh(ctx context.Context) error {
	rows, err := s.gw.SelectAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("listings refresh failed")
		return err
	}
	s.mu.Lock()
	s.all = rows
	s.mu.Unlock()
	log.Info().Int("count", len(rows)).Msg("listings snapshot refreshed")
	return nil
}

// Add stamps the principal onto l, inserts it and prepends the stored record.
func (s *Store) Add(ctx context.Context, p domain.Principal, l *domain.Listing) (*domain.Listing, error) {
	row := l.Clone()
	row.Email = p.Email
	row.UserID = p.UserID
	created, err := s.gw.Insert(ctx, &row)
	if err != nil {
		log.Error().Err(err).Str("user_id", p.UserID).Msg("listing insert failed")
		return nil, err
	}
	s.mu.Lock()
	s.all = append([]domain.Listing{created.Clone()}, s.all...)
	s.mu.Unlock()
	return created, nil
}

// Remove deletes id in the backend, then drops it from the snapshot.
func (s *Store) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.gw.DeleteByID(ctx, id); err != nil {
		log.Error().Err(err).Str("listing_id", id.String()).Msg("listing delete failed")
		return err
	}
	s.mu.Lock()
	kept := s.all[:0:0]
	for _, l := range s.all {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	s.all = kept
	s.mu.Unlock()
	return nil
}

// Replace updates id in the backend and swaps the record in the snapshot.
func (s *Store) Replace(ctx context.Context, id uuid.UUID, l *domain.Listing) (*domain.Listing, error) {
	updated, err := s.gw.Update(ctx, id, l)
	if err != nil {
		log.Error().Err(err).Str("listing_id", id.String()).Msg("listing update failed")
		return nil, err
	}
	s.upsert(*updated)
	return updated, nil
}

// Get reads id through the backend and refreshes the snapshot copy.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	l, err := s.gw.SelectByID(ctx, id)
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			s.drop(id)
		}
		return nil, err
	}
	s.mu.Lock()
	for i := range s.all {
		if s.all[i].ID == id {
			s.all[i] = l.Clone()
			break
		}
	}
	s.mu.Unlock()
	return l, nil
}

// ByOwner lists the user's listings in backend order.
func (s *Store) ByOwner(ctx context.Context, userID string, order gateway.Order) ([]domain.Listing, error) {
	return s.gw.SelectByOwner(ctx, userID, order)
}

func (s *Store) SetSearchQuery(q string) {
	s.mu.Lock()
	s.params.SearchQuery = q
	s.mu.Unlock()
}

func (s *Store) SetFilterCategory(c string) {
	if c == "" {
		c = CategoryAll
	}
	s.mu.Lock()
	s.params.FilterCategory = c
	s.mu.Unlock()
}

func (s *Store) SetSortOption(o string) {
	if o == "" {
		o = SortLatest
	}
	s.mu.Lock()
	s.params.SortOption = o
	s.mu.Unlock()
}

func (s *Store) Params() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// View derives the snapshot with the store's params.
func (s *Store) View() []domain.Listing {
	return s.ViewWith(s.Params())
}

// ViewWith derives the snapshot with p, leaving the stored params alone.
func (s *Store) ViewWith(p Params) []domain.Listing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Derive(s.all, p)
}

// Count is the unfiltered snapshot size.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.all)
}

// Categories lists the distinct categories in the snapshot, sorted.
func (s *Store) Categories() []string {
	s.mu.RLock()
	seen := make(map[string]bool)
	out := []string{}
	for _, l := range s.all {
		if l.Category != "" && !seen[l.Category] {
			seen[l.Category] = true
			out = append(out, l.Category)
		}
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (s *Store) upsert(l domain.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.all {
		if s.all[i].ID == l.ID {
			s.all[i] = l.Clone()
			return
		}
	}
	s.all = append([]domain.Listing{l.Clone()}, s.all...)
}

func (s *Store) drop(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.all {
		if s.all[i].ID == id {
			s.all = append(s.all[:i:i], s.all[i+1:]...)
			return
		}
	}
}
