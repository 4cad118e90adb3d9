package listings

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"techtrust-backend/internal/domain"
	"techtrust-backend/internal/infrastructure/gateway"
	"techtrust-backend/internal/infrastructure/storage"
	"techtrust-backend/internal/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// MaxImages caps the images attached to one listing.
const MaxImages = 5

// User listings filter and sort values.
const (
	FilterAll      = "all"
	SortOldest     = "oldest"
	SortAmountHigh = "price-high"
	SortAmountLow  = "price-low"
)

type Service struct {
	Store         *Store
	Blobs         storage.BlobStore
	EventLog      gateway.EventLog
	Confirmations Confirmations
	ViewParams    ViewParamsStore
	Location      *time.Location
	Now           func() time.Time
}

// ListingDetail is the detail view of one listing.
type ListingDetail struct {
	Listing      domain.Listing `json:"listing"`
	Badge        string         `json:"badge"`
	PriceLabel   string         `json:"price_label"`
	PostedAt     string         `json:"posted_at"`
	WhatsAppLink string         `json:"whatsapp_link"`
	ImageURLs    []string       `json:"image_urls"`
	CanManage    bool           `json:"can_manage"`
}

// UserListing is one row of the "my listings" page.
type UserListing struct {
	Listing    domain.Listing `json:"listing"`
	PriceLabel string         `json:"price_label"`
	Age        string         `json:"age"`
	ImageURL   string         `json:"image_url,omitempty"`
}

// DeleteRequest is a pending delete confirmation.
type DeleteRequest struct {
	ConfirmationToken string `json:"confirmation_token"`
	ExpiresIn         int    `json:"expires_in"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) presenter() Presenter {
	if s.Blobs == nil {
		return Presenter{}
	}
	return Presenter{ImageURL: s.Blobs.PublicURL}
}

// Browse derives the snapshot with params and presents the requested partition page.
func (s *Service) Browse(params Params, state BrowseState) Page {
	return s.presenter().Present(s.Store.ViewWith(params), s.Store.Count(), state)
}

// Detail loads id and builds its detail view for viewer (nil when signed out).
func (s *Service) Detail(ctx context.Context, id uuid.UUID, viewer *domain.Principal) (*ListingDetail, error) {
	l, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p := s.presenter()
	urls := make([]string, 0, len(l.Images))
	for _, img := range l.Images {
		urls = append(urls, p.url(img))
	}
	badge := BadgeSell
	if l.Type == domain.ListingTypeBuy {
		badge = BadgeBuy
	}
	return &ListingDetail{
		Listing:      *l,
		Badge:        badge,
		PriceLabel:   PriceLabel(*l),
		PostedAt:     FormatPostedAt(l.CreatedAt, s.Location),
		WhatsAppLink: WhatsAppLink(*l),
		ImageURLs:    urls,
		CanManage:    viewer != nil && l.IsOwnedBy(viewer.UserID),
	}, nil
}

// ParamsFor returns p's saved browse params. Anonymous viewers and load failures get defaults.
func (s *Service) ParamsFor(ctx context.Context, p *domain.Principal) Params {
	if p == nil || s.ViewParams == nil {
		return DefaultParams()
	}
	params, err := s.ViewParams.Load(ctx, p.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", p.UserID).Msg("load view params failed")
		return DefaultParams()
	}
	return params
}

// UpdateParams applies u to p's saved browse params and stores the result.
func (s *Service) UpdateParams(ctx context.Context, p *domain.Principal, u ParamsUpdate) (Params, error) {
	if p == nil {
		return Params{}, apperrors.AuthRequired("Please sign in to save view settings")
	}
	params := u.Apply(s.ParamsFor(ctx, p))
	if s.ViewParams == nil {
		return params, nil
	}
	if err := s.ViewParams.Save(ctx, p.UserID, params); err != nil {
		log.Error().Err(err).Str("user_id", p.UserID).Msg("save view params failed")
		return Params{}, apperrors.Backend("Failed to save view settings", err)
	}
	return params, nil
}

// Create validates form, uploads files for sell listings and inserts the listing.
// Nothing is inserted unless every upload succeeded.
func (s *Service) Create(ctx context.Context, p *domain.Principal, form domain.ListingForm, files []storage.File) (*domain.Listing, error) {
	if p == nil {
		return nil, apperrors.AuthRequired("Please sign in to create a listing")
	}
	form.Images = nil
	l, err := domain.NewListing(form, *p)
	if err != nil {
		return nil, err
	}
	if l.Type == domain.ListingTypeSell {
		if len(files) > MaxImages {
			return nil, apperrors.Validation("images", "A listing can have at most 5 images")
		}
		paths, err := s.uploadAll(ctx, files)
		if err != nil {
			return nil, err
		}
		l.Images = paths
	}

	created, err := s.Store.Add(ctx, *p, l)
	if err != nil {
		return nil, err
	}
	s.recordEvent(ctx, domain.ListingEventCreated, created, p.UserID)
	return created, nil
}

// Edit fully replaces the owner's listing id. Images become the retained subset of the
// existing images followed by the newly uploaded ones.
func (s *Service) Edit(ctx context.Context, p *domain.Principal, id uuid.UUID, form domain.ListingForm, retained []string, files []storage.File) (*domain.Listing, error) {
	if p == nil {
		return nil, apperrors.AuthRequired("Please sign in to edit a listing")
	}
	form.Images = nil
	l, err := domain.NewListing(form, *p)
	if err != nil {
		return nil, err
	}
	existing, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsOwnedBy(p.UserID) {
		return nil, apperrors.Forbidden("You can only edit your own listings")
	}

	if l.Type == domain.ListingTypeSell {
		kept := keptImages(existing.Images, retained)
		if len(kept)+len(files) > MaxImages {
			return nil, apperrors.Validation("images", "A listing can have at most 5 images")
		}
		paths, err := s.uploadAll(ctx, files)
		if err != nil {
			return nil, err
		}
		l.Images = append(kept, paths...)
	}
	l.UserID = existing.UserID
	l.Email = existing.Email

	updated, err := s.Store.Replace(ctx, id, l)
	if err != nil {
		return nil, err
	}
	s.recordEvent(ctx, domain.ListingEventUpdated, updated, p.UserID)
	return updated, nil
}

// RequestDelete issues a confirmation token the owner must present to delete id.
func (s *Service) RequestDelete(ctx context.Context, p *domain.Principal, id uuid.UUID) (*DeleteRequest, error) {
	if p == nil {
		return nil, apperrors.AuthRequired("Please sign in to delete a listing")
	}
	l, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.IsOwnedBy(p.UserID) {
		return nil, apperrors.Forbidden("You can only delete your own listings")
	}
	token, err := s.Confirmations.Issue(ctx, p.UserID, id)
	if err != nil {
		log.Error().Err(err).Str("listing_id", id.String()).Msg("issue delete confirmation failed")
		return nil, apperrors.Backend("Failed to start delete", err)
	}
	return &DeleteRequest{ConfirmationToken: token, ExpiresIn: int(ConfirmationTTL.Seconds())}, nil
}

// ConfirmDelete spends token and, if it was issued to p for id, deletes the listing.
func (s *Service) ConfirmDelete(ctx context.Context, p *domain.Principal, id uuid.UUID, token string) error {
	if p == nil {
		return apperrors.AuthRequired("Please sign in to delete a listing")
	}
	if err := s.Confirmations.Consume(ctx, p.UserID, id, token); err != nil {
		if errors.Is(err, ErrConfirmationInvalid) {
			return apperrors.Confirmation(err.Error())
		}
		log.Error().Err(err).Str("listing_id", id.String()).Msg("consume delete confirmation failed")
		return apperrors.Backend("Failed to delete listing", err)
	}
	if err := s.Store.Remove(ctx, id); err != nil {
		return err
	}
	s.recordEvent(ctx, domain.ListingEventDeleted, &domain.Listing{ID: id}, p.UserID)
	return nil
}

// UserListings lists p's listings filtered by type and sorted; price sorts compare the
// active amount.
func (s *Service) UserListings(ctx context.Context, p *domain.Principal, filterType, sortOpt string) ([]UserListing, error) {
	if p == nil {
		return nil, apperrors.AuthRequired("Please sign in to view your listings")
	}
	order := gateway.Order{Column: gateway.ColumnCreatedAt, Ascending: sortOpt == SortOldest}
	rows, err := s.Store.ByOwner(ctx, p.UserID, order)
	if err != nil {
		return nil, err
	}

	var filtered []domain.Listing
	for _, l := range rows {
		if filterType == string(domain.ListingTypeSell) || filterType == string(domain.ListingTypeBuy) {
			if string(l.Type) != filterType {
				continue
			}
		}
		filtered = append(filtered, l)
	}
	switch sortOpt {
	case SortAmountHigh:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].ActiveAmount() > filtered[j].ActiveAmount() })
	case SortAmountLow:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].ActiveAmount() < filtered[j].ActiveAmount() })
	}

	pr := s.presenter()
	now := s.now()
	out := make([]UserListing, 0, len(filtered))
	for _, l := range filtered {
		ul := UserListing{Listing: l, PriceLabel: PriceLabel(l), Age: RelativeAge(l.CreatedAt, now, s.Location)}
		if len(l.Images) > 0 {
			ul.ImageURL = pr.url(l.Images[0])
		}
		out = append(out, ul)
	}
	return out, nil
}

// Events lists the audit trail of the owner's listing id.
func (s *Service) Events(ctx context.Context, p *domain.Principal, id uuid.UUID) ([]domain.ListingEvent, error) {
	if p == nil {
		return nil, apperrors.AuthRequired("Please sign in to view listing history")
	}
	l, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.IsOwnedBy(p.UserID) {
		return nil, apperrors.Forbidden("You can only view the history of your own listings")
	}
	if s.EventLog == nil {
		return []domain.ListingEvent{}, nil
	}
	return s.EventLog.EventsForListing(ctx, id)
}

func (s *Service) uploadAll(ctx context.Context, files []storage.File) ([]string, error) {
	paths := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			stored, err := s.Blobs.Upload(gctx, storage.RandomName(f.Name), f)
			if err != nil {
				return err
			}
			paths[i] = stored
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Int("files", len(files)).Msg("image upload failed")
		if apperrors.KindOf(err) == "" {
			err = apperrors.Upload("Failed to upload image", err)
		}
		return nil, err
	}
	return paths, nil
}

func keptImages(existing []string, retained []string) []string {
	have := make(map[string]bool, len(existing))
	for _, e := range existing {
		have[e] = true
	}
	kept := []string{}
	for _, r := range retained {
		if have[r] {
			kept = append(kept, r)
			delete(have, r)
		}
	}
	return kept
}

func (s *Service) recordEvent(ctx context.Context, eventType string, l *domain.Listing, actor string) {
	if s.EventLog == nil {
		return
	}
	data, _ := json.Marshal(map[string]interface{}{
		"type":   l.Type,
		"title":  l.Title,
		"price":  l.Price,
		"budget": l.Budget,
		"images": len(l.Images),
	})
	ev := &domain.ListingEvent{
		ListingID:   l.ID,
		EventType:   eventType,
		EventData:   datatypes.JSON(data),
		ActorUserID: actor,
	}
	if err := s.EventLog.AppendEvent(ctx, ev); err != nil {
		log.Error().Err(err).Str("listing_id", l.ID.String()).Str("event_type", eventType).Msg("listing event write failed")
	}
}
