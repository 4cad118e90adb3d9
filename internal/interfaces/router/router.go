package router

import (
	"context"
	"errors"
	"net/http"
	"time"
	_ "time/tzdata"

	authsvc "techtrust-backend/internal/application/auth"
	healthsvc "techtrust-backend/internal/application/health"
	listsvc "techtrust-backend/internal/application/listings"
	"techtrust-backend/internal/config"
	"techtrust-backend/internal/infrastructure/database"
	"techtrust-backend/internal/infrastructure/gateway"
	"techtrust-backend/internal/infrastructure/storage"
	authhandler "techtrust-backend/internal/interfaces/handlers/auth"
	healthhandler "techtrust-backend/internal/interfaces/handlers/health"
	listhandler "techtrust-backend/internal/interfaces/handlers/listings"
	"techtrust-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// App is the wired application. Store is nil when no database is configured.
type App struct {
	Fiber       *fiber.App
	DB          *gorm.DB
	Rdb         *redis.Client
	Store       *listsvc.Store
	Broadcaster *authsvc.Broadcaster

	unsubscribe []func()
}

// Shutdown detaches auth subscribers and closes the backend connections.
func (a *App) Shutdown() {
	for _, fn := range a.unsubscribe {
		fn()
	}
	a.unsubscribe = nil
	if a.Rdb != nil {
		_ = a.Rdb.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func displayLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Err(err).Str("timezone", name).Msg("unknown display timezone, using local time")
		return time.Local
	}
	return loc
}

func CreateApp(cfg *config.Config) (*App, error) {
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler(rdb),
		EnableTrustedProxyCheck: true,
		BodyLimit:               (listsvc.MaxImages + 1) * 10 * 1024 * 1024,
	})
	a := &App{Fiber: app, Rdb: rdb, Broadcaster: authsvc.NewBroadcaster()}

	verifier := authsvc.NewVerifier(cfg.SupabaseJWTSecret)
	sessionCfg := middleware.SessionConfig{
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.Session(rdb))
	app.Use(middleware.Authenticate(verifier))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.RouteLogger())

	a.unsubscribe = append(a.unsubscribe, a.Broadcaster.Subscribe(func(ev authsvc.Event) {
		if ev.SignedIn() {
			log.Info().Str("user_id", ev.Principal.UserID).Msg("user signed in")
			return
		}
		log.Info().Str("user_id", ev.UserID).Msg("user signed out")
	}))

	checker := &healthsvc.Checker{Rdb: rdb}
	if cfg.SupabaseURL != "" {
		checker.Probes = map[string]string{"supabase": cfg.SupabaseURL + "/auth/v1/health"}
	}
	hh := &healthhandler.Handlers{Checker: checker, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/", hh.Root)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	ah := &authhandler.Handlers{
		Verifier:    verifier,
		Broadcaster: a.Broadcaster,
		Rdb:         rdb,
		Config:      sessionCfg,
		SupabaseURL: cfg.SupabaseURL,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Get("/signin", ah.SignIn)
	authGroup.Post("/session", ah.Session)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	if cfg.DatabaseURL != "" {
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			a.Shutdown()
			return nil, err
		}
		a.DB = db
		if err := database.AutoMigrate(db); err != nil {
			a.Shutdown()
			return nil, err
		}
		a.mountListings(cfg, db, rdb)
		checker.DB = &gormDBPinger{db: db}
		checker.Snapshot = a.Store.Count
	}

	return a, nil
}

func (a *App) mountListings(cfg *config.Config, db *gorm.DB, rdb *redis.Client) {
	gw := &gateway.GormGateway{DB: db}
	a.Store = listsvc.NewStore(gw)
	confirmations := listsvc.NewRedisConfirmations(rdb)

	// Tokens issued before sign-out must not outlive the session.
	a.unsubscribe = append(a.unsubscribe, a.Broadcaster.Subscribe(func(ev authsvc.Event) {
		if ev.SignedIn() || ev.UserID == "" {
			return
		}
		if err := confirmations.RevokeUser(context.Background(), ev.UserID); err != nil {
			log.Error().Err(err).Str("user_id", ev.UserID).Msg("revoke delete confirmations failed")
		}
	}))

	ls := &listsvc.Service{
		Store:         a.Store,
		Blobs:         storage.NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseSecretKey, cfg.StorageBucket),
		EventLog:      gw,
		Confirmations: confirmations,
		ViewParams:    listsvc.NewRedisViewParams(rdb),
		Location:      displayLocation(cfg.DisplayTimezone),
	}
	lh := &listhandler.Handlers{Service: ls}

	lg := a.Fiber.Group("/api/v1/listings")
	lg.Get("/", lh.Browse)
	lg.Get("/categories", lh.Categories)
	lg.Get("/params", lh.GetParams)
	lg.Put("/params", middleware.RequireAuth(), lh.SetParams)
	lg.Post("/refresh", middleware.RequireAuth(), lh.Refresh)
	lg.Post("/", middleware.RequireAuth(), lh.Create)
	lg.Get("/:id", lh.Detail)
	lg.Put("/:id", middleware.RequireAuth(), lh.Edit)
	lg.Delete("/:id", middleware.RequireAuth(), lh.Delete)
	lg.Post("/:id/delete-request", middleware.RequireAuth(), lh.RequestDelete)
	lg.Get("/:id/events", middleware.RequireAuth(), lh.Events)

	a.Fiber.Get("/api/v1/me/listings", middleware.RequireAuth(), lh.MyListings)
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
