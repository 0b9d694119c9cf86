package portal

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ghaggin/fypportal/internal/api"
	"github.com/ghaggin/fypportal/internal/fyp"
	"github.com/ghaggin/fypportal/internal/model"
	"github.com/ghaggin/fypportal/internal/session"
	"github.com/ghaggin/fypportal/internal/template"
	"github.com/ghaggin/fypportal/internal/validate"
)

type supervisorDashboardView struct {
	Pending       []model.Proposal
	Projects      []model.Project
	Submissions   []model.Submission
	Notifications []model.Notification
	Errors        map[string]string
}

func (h *handlers) supervisorDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := session.Token(ctx)

	var (
		c         = supervisorDashboardView{}
		proposals []model.Proposal
		errs      = [4]error{}
		g         errgroup.Group
	)
	g.Go(func() error { proposals, errs[0] = h.api.ListProposals(ctx, token); return nil })
	g.Go(func() error { c.Projects, errs[1] = h.api.ListProjects(ctx, token); return nil })
	g.Go(func() error { c.Submissions, errs[2] = h.api.ListSubmissions(ctx, token); return nil })
	g.Go(func() error { c.Notifications, errs[3] = h.api.ListNotifications(ctx, token); return nil })
	_ = g.Wait()

	for _, p := range proposals {
		if p.Status == model.ProposalPending {
			c.Pending = append(c.Pending, p)
		}
	}
	c.Errors = collectErrors(map[string]error{
		"proposals":     errs[0],
		"projects":      errs[1],
		"submissions":   errs[2],
		"notifications": errs[3],
	})

	d := h.page(r, "supervisor dashboard")
	d.Content = c
	h.render(w, r, http.StatusOK, "supervisor_dashboard.html", d)
}

type proposalList struct {
	Proposals []model.Proposal
	CanDecide bool
}

func (h *handlers) proposalPage(w http.ResponseWriter, r *http.Request, tmpl string) {
	ctx := r.Context()
	d := h.page(r, "proposals")
	c := proposalList{CanDecide: d.User.Role == model.RoleSupervisor || d.User.Role == model.RoleAdmin}

	var err error
	c.Proposals, err = h.api.ListProposals(ctx, session.Token(ctx))
	if err != nil {
		d.Error = loadError(err)
	}
	switch r.URL.Query().Get("decided") {
	case string(model.ProposalApproved):
		d.Flash = "Proposal approved."
	case string(model.ProposalRejected):
		d.Flash = "Proposal rejected."
	}
	if r.URL.Query().Get("failed") != "" {
		d.Error = "Failed to update proposal."
	}

	d.Content = c
	h.render(w, r, http.StatusOK, tmpl, d)
}

func (h *handlers) supervisorProposals(w http.ResponseWriter, r *http.Request) {
	h.proposalPage(w, r, "proposals.html")
}

// decideProposal approves or rejects a proposal, with optional feedback.
func (h *handlers) decideProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	status := model.ProposalStatus(r.FormValue("status"))
	if status != model.ProposalApproved && status != model.ProposalRejected {
		http.Error(w, "status must be approved or rejected", http.StatusBadRequest)
		return
	}

	in := api.ProposalUpdate{
		Status:   &status,
		Feedback: optional(r.FormValue("feedback")),
	}

	back := fyp.RedirectFor(session.UserFromContext(r.Context())) + "/proposals"
	if _, err := h.api.UpdateProposal(r.Context(), session.Token(r.Context()), id, in); err != nil {
		h.log.Warn("proposal decision failed", zap.Error(err))
		http.Redirect(w, r, back+"?failed=1", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, back+"?decided="+string(status), http.StatusSeeOther)
}

type projectList struct {
	Projects  []model.Project
	Approved  []model.Proposal
	Statuses  []model.ProjectStatus
	CanManage bool
}

var projectStatuses = []model.ProjectStatus{
	model.ProjectActive,
	model.ProjectCompleted,
	model.ProjectOnHold,
}

func (h *handlers) projectPage(r *http.Request) (*template.Data, projectList) {
	ctx := r.Context()
	token := session.Token(ctx)
	d := h.page(r, "projects")
	c := projectList{Statuses: projectStatuses, CanManage: d.User.Role == model.RoleSupervisor}

	var (
		proposals       []model.Proposal
		projErr, proErr error
		g               errgroup.Group
	)
	g.Go(func() error { c.Projects, projErr = h.api.ListProjects(ctx, token); return nil })
	if c.CanManage {
		g.Go(func() error { proposals, proErr = h.api.ListProposals(ctx, token); return nil })
	}
	_ = g.Wait()

	for _, p := range proposals {
		if p.Status == model.ProposalApproved {
			c.Approved = append(c.Approved, p)
		}
	}
	if projErr != nil {
		d.Error = loadError(projErr)
	} else if proErr != nil {
		d.Error = loadError(proErr)
	}
	if r.URL.Query().Get("ok") != "" {
		d.Flash = "Project saved."
	}
	return d, c
}

func (h *handlers) supervisorProjects(w http.ResponseWriter, r *http.Request) {
	d, c := h.projectPage(r)
	d.Content = c
	h.render(w, r, http.StatusOK, "projects.html", d)
}

func (h *handlers) createProject(w http.ResponseWriter, r *http.Request) {
	u := session.UserFromContext(r.Context())
	in := api.ProjectInput{
		ProposalID:  formInt(r, "proposal"),
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Supervisor:  &u.ID,
		Students:    formIDs(r, "students"),
		Status:      model.ProjectActive,
		StartDate:   r.FormValue("start_date"),
		EndDate:     r.FormValue("end_date"),
	}

	err := h.validate.Struct(in)
	if err == nil {
		_, err = h.api.CreateProject(r.Context(), session.Token(r.Context()), in)
	}
	if err != nil {
		d, c := h.projectPage(r)
		status := formError(d, err)
		d.Content = c
		h.render(w, r, status, "projects.html", d)
		return
	}
	http.Redirect(w, r, "/supervisor/projects?ok=1", http.StatusSeeOther)
}

// updateProject patches only the fields present in the form.
func (h *handlers) updateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	in := api.ProjectUpdate{
		Title:       optional(r.FormValue("title")),
		Description: optional(r.FormValue("description")),
		StartDate:   optional(r.FormValue("start_date")),
		EndDate:     optional(r.FormValue("end_date")),
	}
	if s := model.ProjectStatus(r.FormValue("status")); s != "" {
		in.Status = &s
	}

	err := h.validate.Var("status", r.FormValue("status"), "omitempty,oneof=active completed on_hold")
	if err == nil {
		_, err = h.api.UpdateProject(r.Context(), session.Token(r.Context()), id, in)
	}
	if err != nil {
		d, c := h.projectPage(r)
		status := formError(d, err)
		d.Content = c
		h.render(w, r, status, "projects.html", d)
		return
	}
	http.Redirect(w, r, "/supervisor/projects?ok=1", http.StatusSeeOther)
}

func (h *handlers) supervisorMilestones(w http.ResponseWriter, r *http.Request) {
	h.milestonePage(w, r, "supervisor_milestones.html")
}

func (h *handlers) createMilestone(w http.ResponseWriter, r *http.Request) {
	in := api.MilestoneInput{
		Project:     formInt(r, "project"),
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		DueDate:     r.FormValue("due_date"),
	}

	err := h.validate.Struct(in)
	if err == nil {
		_, err = h.api.CreateMilestone(r.Context(), session.Token(r.Context()), in)
	}
	if err != nil {
		h.milestoneFailed(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/supervisor/milestones?project=%d&ok=1", in.Project), http.StatusSeeOther)
}

// updateMilestone stamps today's completion date when a milestone is marked
// completed and the form gives none.
func (h *handlers) updateMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}

	in := api.MilestoneUpdate{
		Title:          optional(r.FormValue("title")),
		Description:    optional(r.FormValue("description")),
		DueDate:        optional(r.FormValue("due_date")),
		CompletionDate: optional(r.FormValue("completion_date")),
	}
	if s := model.MilestoneStatus(r.FormValue("status")); s != "" {
		in.Status = &s
		if s == model.MilestoneCompleted && in.CompletionDate == nil {
			today := time.Now().Format(time.DateOnly)
			in.CompletionDate = &today
		}
	}

	err := h.validate.Var("status", r.FormValue("status"), "omitempty,oneof=pending completed overdue")
	if err == nil {
		_, err = h.api.UpdateMilestone(r.Context(), session.Token(r.Context()), id, in)
	}
	if err != nil {
		h.milestoneFailed(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/supervisor/milestones?project=%d&ok=1", formInt(r, "project")), http.StatusSeeOther)
}

func (h *handlers) milestoneFailed(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	token := session.Token(ctx)
	d := h.page(r, "milestones")
	c := milestoneList{ProjectID: formInt(r, "project")}
	status := formError(d, err)

	var projErr, msErr error
	c.Projects, projErr = h.api.ListProjects(ctx, token)
	c.Milestones, msErr = h.api.ListMilestones(ctx, token, c.ProjectID)
	addLoadError(d, projErr)
	addLoadError(d, msErr)

	d.Content = c
	h.render(w, r, status, "supervisor_milestones.html", d)
}

type supervisorEvaluationsView struct {
	ProjectID   int
	RubricID    int
	Projects    []model.Project
	Rubrics     []model.Rubric
	Rubric      *model.Rubric
	MaxScore    float64
	Evaluations []evaluationRow
}

func (h *handlers) evaluationPage(r *http.Request, projectID, rubricID int) (*template.Data, supervisorEvaluationsView) {
	ctx := r.Context()
	token := session.Token(ctx)
	d := h.page(r, "evaluations")
	c := supervisorEvaluationsView{ProjectID: projectID, RubricID: rubricID}

	var (
		evals                   []model.Evaluation
		projErr, rubErr, evlErr error
		g                       errgroup.Group
	)
	g.Go(func() error { c.Projects, projErr = h.api.ListProjects(ctx, token); return nil })
	g.Go(func() error { c.Rubrics, rubErr = h.api.ListRubrics(ctx, token); return nil })
	g.Go(func() error { evals, evlErr = h.api.ListEvaluations(ctx, token, projectID); return nil })
	_ = g.Wait()

	for i := range c.Rubrics {
		if c.Rubrics[i].ID == rubricID {
			c.Rubric = &c.Rubrics[i]
			c.MaxScore = fyp.NewScoreSheet(c.Rubrics[i]).Max()
		}
	}
	c.Evaluations = joinRubrics(evals, c.Rubrics)

	for _, err := range []error{projErr, rubErr, evlErr} {
		if err != nil {
			d.Error = loadError(err)
			break
		}
	}
	if r.URL.Query().Get("ok") != "" {
		d.Flash = "Evaluation submitted."
	}
	return d, c
}

func (h *handlers) supervisorEvaluations(w http.ResponseWriter, r *http.Request) {
	d, c := h.evaluationPage(r, queryInt(r, "project"), queryInt(r, "rubric"))
	d.Content = c
	h.render(w, r, http.StatusOK, "supervisor_evaluations.html", d)
}

// submitEvaluation reads one "score_<criterion>" field per rubric criterion.
func (h *handlers) submitEvaluation(w http.ResponseWriter, r *http.Request) {
	projectID := formInt(r, "project")
	d, c := h.evaluationPage(r, projectID, formInt(r, "rubric"))

	fail := func(status int) {
		d.Content = c
		h.render(w, r, status, "supervisor_evaluations.html", d)
	}

	if c.Rubric == nil {
		d.Fields["rubric"] = "choose a rubric"
		d.Error = "Please correct the highlighted fields."
		fail(http.StatusUnprocessableEntity)
		return
	}

	sheet := fyp.NewScoreSheet(*c.Rubric)
	bad := validate.Errors{}
	for _, crit := range c.Rubric.Criteria {
		field := "score_" + crit.Name
		v, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue(field)), 64)
		if err != nil {
			bad[field] = "enter a number"
			continue
		}
		if err := sheet.Set(crit.Name, v); err != nil {
			bad[field] = err.Error()
		}
	}
	if len(bad) > 0 {
		fail(formError(d, bad))
		return
	}

	in := sheet.Evaluation(projectID, strings.TrimSpace(r.FormValue("comments")))
	err := h.validate.Struct(in)
	if err == nil {
		_, err = h.api.SubmitEvaluation(r.Context(), session.Token(r.Context()), in)
	}
	if err != nil {
		fail(formError(d, err))
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/supervisor/evaluations?project=%d&ok=1", projectID), http.StatusSeeOther)
}

func (h *handlers) supervisorSubmissions(w http.ResponseWriter, r *http.Request) {
	d, c := h.submissionPage(r)
	d.Content = c
	h.render(w, r, http.StatusOK, "supervisor_submissions.html", d)
}
