package listings

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"techtrust-backend/internal/domain"
	"techtrust-backend/internal/infrastructure/gateway"
	"techtrust-backend/internal/infrastructure/storage"
	"techtrust-backend/internal/pkg/apperrors"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// fakeBlobs records uploads and fails any file whose name is in failOn.
type fakeBlobs struct {
	mu     sync.Mutex
	calls  int
	stored []string
	failOn map[string]bool
}

func (f *fakeBlobs) Upload(ctx context.Context, name string, file storage.File) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failOn[file.Name] {
		return "", apperrors.Upload("Failed to upload image", errors.New("storage unavailable"))
	}
	f.stored = append(f.stored, name)
	return name, nil
}

func (f *fakeBlobs) PublicURL(p string) string {
	return "https://cdn.test/images/" + p
}

// failingGateway fails every call.
type failingGateway struct{ gateway.Gateway }

var errBackendDown = apperrors.Backend("backend down", errors.New("connection refused"))

func (failingGateway) Insert(context.Context, *domain.Listing) (*domain.Listing, error) {
	return nil, errBackendDown
}
func (failingGateway) SelectAll(context.Context) ([]domain.Listing, error) { return nil, errBackendDown }
func (failingGateway) DeleteByID(context.Context, uuid.UUID) error         { return errBackendDown }

type fixture struct {
	db    *gorm.DB
	gw    *gateway.GormGateway
	store *Store
	blobs *fakeBlobs
	mr    *miniredis.Miniredis
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Listing{}, &domain.ListingEvent{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gw := &gateway.GormGateway{DB: db}
	store := NewStore(gw)
	blobs := &fakeBlobs{failOn: map[string]bool{}}
	return &fixture{
		db:    db,
		gw:    gw,
		store: store,
		blobs: blobs,
		mr:    mr,
		svc: &Service{
			Store:         store,
			Blobs:         blobs,
			EventLog:      gw,
			Confirmations: NewRedisConfirmations(rdb),
			ViewParams:    NewRedisViewParams(rdb),
			Location:      time.FixedZone("IST", 5*3600+1800),
		},
	}
}

func (f *fixture) countRows(t *testing.T) int64 {
	var n int64
	require.NoError(t, f.db.Model(&domain.Listing{}).Count(&n).Error)
	return n
}

// seed inserts a listing row directly with a fixed created_at.
func (f *fixture) seed(t *testing.T, l domain.Listing) domain.Listing {
	t.Helper()
	if l.Images == nil {
		l.Images = datatypes.JSONSlice[string]{}
	}
	require.NoError(t, f.db.Create(&l).Error)
	return l
}

func imageFile(name string) storage.File {
	return storage.File{
		Name:        name,
		ContentType: "image/jpeg",
		Size:        4,
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("jpeg")), nil },
	}
}

func sellForm(title string) domain.ListingForm {
	return domain.ListingForm{
		Type:          "sell",
		Title:         title,
		Description:   "Barely used",
		Category:      "Electronics",
		Price:         "1500",
		ContactName:   "Asha",
		ContactNumber: "+91 98765-43210",
	}
}

func buyForm(title string) domain.ListingForm {
	return domain.ListingForm{
		Type:          "buy",
		Title:         title,
		Description:   "Looking for one",
		Category:      "Books",
		Budget:        "300",
		ContactName:   "Ravi",
		ContactNumber: "9123456789",
	}
}

var (
	owner    = &domain.Principal{UserID: "user-1", Email: "asha@example.com", DisplayName: "Asha"}
	stranger = &domain.Principal{UserID: "user-2", Email: "ravi@example.com", DisplayName: "Ravi"}
)
