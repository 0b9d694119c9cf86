package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ghaggin/fypportal/internal/api"
	"github.com/ghaggin/fypportal/internal/config"
	"github.com/ghaggin/fypportal/internal/model"
	"github.com/ghaggin/fypportal/internal/session"
	"github.com/ghaggin/fypportal/internal/validate"
	"github.com/ghaggin/fypportal/internal/view"
)

type Portal struct {
	log    *zap.Logger
	server *http.Server
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Config    *config.Config
	Store     *session.Store
	Client    *api.Client
	Validator *validate.Validator
}

func New(p Params) (*Portal, error) {
	h := newHandlers(p.Log, p.Store, p.Client, p.Validator)

	return &Portal{
		log: p.Log,
		server: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", p.Config.Portal.Host, p.Config.Portal.Port),
			Handler: h.router(),
		},
	}, nil
}

// RegisterHooks should be invoked by fx
func RegisterHooks(lc fx.Lifecycle, p *Portal) {
	lc.Append(fx.Hook{
		OnStart: p.Start,
		OnStop:  p.server.Shutdown,
	})
}

func (p *Portal) Start(_ context.Context) error {
	p.log.Info("portal listening", zap.String("addr", p.server.Addr))
	go func() {
		err := p.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.Error("error starting server", zap.Error(err))
		}
	}()
	return nil
}

type handlers struct {
	log      *zap.Logger
	store    *session.Store
	api      *api.Client
	validate *validate.Validator

	milestones    *view.Loader[[]model.Milestone]
	notifications *view.Loader[[]model.Notification]
}

func newHandlers(log *zap.Logger, store *session.Store, client *api.Client, v *validate.Validator) *handlers {
	return &handlers{
		log:           log,
		store:         store,
		api:           client,
		validate:      v,
		milestones:    view.NewLoader[[]model.Milestone](),
		notifications: view.NewLoader[[]model.Notification](),
	}
}

func (h *handlers) router() http.Handler {
	root := chi.NewRouter()
	root.Use(requestID, logRequests(h.log))

	root.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	root.Handle("/metrics", promhttp.Handler())

	root.Group(func(r chi.Router) {
		r.Use(h.store.Wrap, h.store.Resolve)

		// No Auth
		r.Get("/", h.home)
		r.Get("/login", h.loginPage)
		r.Post("/login", h.login)
		r.Post("/logout", h.logout)
		r.Get("/register", h.registerPage)
		r.Post("/register", h.register)
		r.Get("/password-reset", h.resetPage)
		r.Post("/password-reset", h.reset)
		r.Post("/preferences/theme", h.setTheme)

		// Auth
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/notifications", h.listNotifications)
			r.Post("/notifications/{id}/read", h.markNotificationRead)

			r.With(requireRole(model.RoleStudent, model.RoleSupervisor)).Route("/feedback/{threadID}", func(r chi.Router) {
				r.Get("/", h.feedbackThread)
				r.Post("/", h.postFeedback)
			})
			r.With(requireRole(model.RoleSupervisor, model.RoleAdmin)).Post("/proposals/{id}/decision", h.decideProposal)

			r.Route("/student", func(r chi.Router) {
				r.Use(requireRole(model.RoleStudent))
				r.Get("/", h.studentDashboard)
				r.Get("/proposals", h.studentProposals)
				r.Post("/proposals", h.submitProposal)
				r.Get("/milestones", h.studentMilestones)
				r.Get("/documents", h.studentDocuments)
				r.Post("/documents", h.uploadDocument)
				r.Get("/evaluations", h.studentEvaluations)
				r.Get("/submissions", h.studentSubmissions)
				r.Post("/submissions", h.createSubmission)
			})

			r.Route("/supervisor", func(r chi.Router) {
				r.Use(requireRole(model.RoleSupervisor))
				r.Get("/", h.supervisorDashboard)
				r.Get("/proposals", h.supervisorProposals)
				r.Get("/projects", h.supervisorProjects)
				r.Post("/projects", h.createProject)
				r.Post("/projects/{id}", h.updateProject)
				r.Get("/milestones", h.supervisorMilestones)
				r.Post("/milestones", h.createMilestone)
				r.Post("/milestones/{id}", h.updateMilestone)
				r.Get("/evaluations", h.supervisorEvaluations)
				r.Post("/evaluations", h.submitEvaluation)
				r.Get("/submissions", h.supervisorSubmissions)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireRole(model.RoleAdmin))
				r.Get("/", h.adminDashboard)
				r.Get("/proposals", h.adminProposals)
				r.Get("/projects", h.adminProjects)
			})
		})
	})

	return root
}
