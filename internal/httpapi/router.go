package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"tmtops/api/internal/auth"
	"tmtops/api/internal/config"
	"tmtops/api/internal/db"
	"tmtops/api/internal/records"
	"tmtops/api/internal/sheets"
)

// Store is the local state behind the API. *db.Store implements it.
type Store interface {
	CreateSession(ctx context.Context, u auth.User, expires time.Time) (uuid.UUID, error)
	GetSession(ctx context.Context, sid uuid.UUID) (auth.User, time.Time, error)
	DeleteSession(ctx context.Context, sid uuid.UUID) error

	CreatePlanning(ctx context.Context, p *records.PlanningRecord) error
	ListPlanning(ctx context.Context, brand string) ([]records.PlanningRecord, error)
	GetPlanning(ctx context.Context, id string) (records.PlanningRecord, error)
	MarkPlanningSynced(ctx context.Context, id string) error
	DeletePlanning(ctx context.Context, id string) error

	CreateProduction(ctx context.Context, p *records.ProductionRecord) error
	GetProduction(ctx context.Context, id string) (records.ProductionRecord, error)
	MarkProductionSynced(ctx context.Context, id string) error
	ListProduction(ctx context.Context, brand string) ([]records.ProductionRecord, error)

	GetReceipt(ctx context.Context, key, username string) (db.Receipt, bool, error)
	SaveReceipt(ctx context.Context, r db.Receipt) error
}

type Deps struct {
	Store  Store
	Sheets sheets.Reader
	// Script writes the TMT sheets, Delegation the task sheets.
	Script     sheets.Writer
	Delegation sheets.Writer
	Config     config.Config
	Now        func() time.Time
}

type App struct {
	store      Store
	sheets     sheets.Reader
	script     sheets.Writer
	delegation sheets.Writer
	cfg        config.Config
	now        func() time.Time

	// allocMu serializes read-max-then-write for CN numbers and task ids.
	allocMu sync.Mutex
}

const sessionCookie = "tmtops_session"

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	now := deps.Now
	if now == nil {
		now = time.Now
	}
	delegation := deps.Delegation
	if delegation == nil {
		delegation = deps.Script
	}
	app := &App{
		store:      deps.Store,
		sheets:     deps.Sheets,
		script:     deps.Script,
		delegation: delegation,
		cfg:        deps.Config,
		now:        now,
	}

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", app.handleLogin)
		api.Post("/auth/logout", app.handleLogout)

		api.Group(func(pr chi.Router) {
			pr.Use(app.authMiddleware)
			pr.Use(app.idempotent)
			pr.Get("/auth/me", app.handleMe)
			pr.Get("/dashboard", app.handleDashboard)

			pr.Route("/planning", func(pl chi.Router) {
				pl.Get("/", app.handleListPlanning)
				pl.Post("/", app.handleCreatePlanning)
				pl.Get("/local", app.handleListLocalPlanning)
				pl.With(requireFullAdmin).Post("/{id}/sync", app.handleSyncPlanning)
				pl.With(requireFullAdmin).Delete("/{id}", app.handleDeletePlanning)
			})

			pr.Route("/production", func(po chi.Router) {
				po.Get("/", app.handleListProduction)
				po.Post("/", app.handleCreateProduction)
				po.Get("/local", app.handleListLocalProduction)
				po.With(requireFullAdmin).Post("/{id}/sync", app.handleSyncProduction)
			})

			pr.Route("/kitting", func(k chi.Router) {
				k.Get("/pending", app.handleKittingPending)
				k.Get("/materials", app.handleMaterials)
				k.With(requireFullAdmin).Post("/materials/refresh", app.handleRefreshMasters)
				k.Post("/preview", app.handleCostPreview)
				k.Get("/compositions", app.handleListCompositions)
				k.Post("/compositions", app.handleCreateComposition)
			})

			pr.Route("/delegation", func(d chi.Router) {
				d.Get("/calendar", app.handleCalendar)
				d.Post("/preview", app.handleTaskPreview)
				d.With(requireAdmin).Post("/tasks", app.handleCreateTasks)
			})

			pr.Route("/export", func(ex chi.Router) {
				ex.Get("/planning.xlsx", app.handleExportPlanning)
				ex.Get("/compositions.xlsx", app.handleExportCompositions)
			})
		})
	})

	return r
}
