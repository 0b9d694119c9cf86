package portal

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/ghaggin/fypportal/internal/model"
	"github.com/ghaggin/fypportal/internal/session"
)

type adminDashboardView struct {
	Analytics *model.Analytics
	Proposals []model.Proposal
	Projects  []model.Project
	Errors    map[string]string
}

func (h *handlers) adminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := session.Token(ctx)

	var (
		c    = adminDashboardView{}
		errs = [3]error{}
		g    errgroup.Group
	)
	g.Go(func() error { c.Analytics, errs[0] = h.api.GetAnalytics(ctx, token); return nil })
	g.Go(func() error { c.Proposals, errs[1] = h.api.ListProposals(ctx, token); return nil })
	g.Go(func() error { c.Projects, errs[2] = h.api.ListProjects(ctx, token); return nil })
	_ = g.Wait()

	c.Errors = collectErrors(map[string]error{
		"analytics": errs[0],
		"proposals": errs[1],
		"projects":  errs[2],
	})

	d := h.page(r, "admin dashboard")
	d.Content = c
	h.render(w, r, http.StatusOK, "admin_dashboard.html", d)
}

func (h *handlers) adminProposals(w http.ResponseWriter, r *http.Request) {
	h.proposalPage(w, r, "proposals.html")
}

func (h *handlers) adminProjects(w http.ResponseWriter, r *http.Request) {
	d, c := h.projectPage(r)
	d.Content = c
	h.render(w, r, http.StatusOK, "projects.html", d)
}
