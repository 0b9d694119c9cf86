package portal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ghaggin/fypportal/internal/api"
	"github.com/ghaggin/fypportal/internal/fyp"
	"github.com/ghaggin/fypportal/internal/model"
	"github.com/ghaggin/fypportal/internal/session"
	"github.com/ghaggin/fypportal/internal/template"
	"github.com/ghaggin/fypportal/internal/view"
)

type studentDashboardView struct {
	Proposals     []model.Proposal
	Projects      []model.Project
	Milestones    []model.Milestone
	Notifications []model.Notification
	Errors        map[string]string
}

// studentDashboard loads its collections side by side. A collection that
// fails shows its own message; the others still render.
func (h *handlers) studentDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := session.Token(ctx)

	var (
		c    = studentDashboardView{}
		errs = [4]error{}
		g    errgroup.Group
	)
	g.Go(func() error { c.Proposals, errs[0] = h.api.ListProposals(ctx, token); return nil })
	g.Go(func() error { c.Projects, errs[1] = h.api.ListProjects(ctx, token); return nil })
	g.Go(func() error { c.Milestones, errs[2] = h.api.ListMilestones(ctx, token, 0); return nil })
	g.Go(func() error { c.Notifications, errs[3] = h.api.ListNotifications(ctx, token); return nil })
	_ = g.Wait()

	c.Errors = collectErrors(map[string]error{
		"proposals":     errs[0],
		"projects":      errs[1],
		"milestones":    errs[2],
		"notifications": errs[3],
	})

	d := h.page(r, "student dashboard")
	d.Content = c
	h.render(w, r, http.StatusOK, "student_dashboard.html", d)
}

func collectErrors(in map[string]error) map[string]string {
	out := map[string]string{}
	for k, err := range in {
		if err != nil {
			out[k] = loadError(err)
		}
	}
	return out
}

type proposalForm struct {
	Title       string
	Description string
	Supervisor  int
	Batch       string
}

type studentProposalsView struct {
	Proposals []model.Proposal
	Form      proposalForm
}

func (h *handlers) studentProposals(w http.ResponseWriter, r *http.Request) {
	d := h.page(r, "my proposals")
	c := studentProposalsView{}

	var err error
	c.Proposals, err = h.api.ListProposals(r.Context(), session.Token(r.Context()))
	if err != nil {
		d.Error = loadError(err)
	}
	if r.URL.Query().Get("ok") != "" {
		d.Flash = "Proposal submitted successfully!"
	}

	d.Content = c
	h.render(w, r, http.StatusOK, "student_proposals.html", d)
}

// submitProposal refuses a title already proposed to another supervisor
// before anything is sent to the backend.
func (h *handlers) submitProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := session.Token(ctx)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	doc, closeDoc, err := upload(r, "document")
	if err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	defer closeDoc()

	in := api.ProposalInput{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Supervisor:  formInt(r, "supervisor"),
		Batch:       strings.TrimSpace(r.FormValue("batch")),
		Document:    doc,
	}

	d := h.page(r, "my proposals")
	c := studentProposalsView{Form: proposalForm{Title: in.Title, Description: in.Description, Supervisor: in.Supervisor, Batch: in.Batch}}

	proposals, listErr := h.api.ListProposals(ctx, token)
	c.Proposals = proposals

	if listErr == nil && fyp.DuplicateTitle(proposals, in.Title, in.Supervisor) {
		d.Error = fyp.DuplicateTitleMessage
		d.Fields["title"] = fyp.DuplicateTitleMessage
		d.Content = c
		h.render(w, r, http.StatusConflict, "student_proposals.html", d)
		return
	}

	if err := h.validate.Struct(in); err != nil {
		status := formError(d, err)
		d.Content = c
		h.render(w, r, status, "student_proposals.html", d)
		return
	}

	if _, err := h.api.CreateProposal(ctx, token, in); err != nil {
		status := formError(d, err)
		d.Content = c
		h.render(w, r, status, "student_proposals.html", d)
		return
	}

	http.Redirect(w, r, "/student/proposals?ok=1", http.StatusSeeOther)
}

type milestoneList struct {
	ProjectID  int
	Projects   []model.Project
	Milestones []model.Milestone
}

// loadMilestones goes through the ordered loader so a slow, older list for
// the same user never overwrites a newer one.
func (h *handlers) loadMilestones(r *http.Request, projectID int) ([]model.Milestone, error) {
	ctx := r.Context()
	token := session.Token(ctx)
	u := session.UserFromContext(ctx)

	key := fmt.Sprintf("%d:milestones", u.ID)
	return h.milestones.Load(ctx, key, func(ctx context.Context) ([]model.Milestone, error) {
		return h.api.ListMilestones(ctx, token, projectID)
	})
}

func (h *handlers) studentMilestones(w http.ResponseWriter, r *http.Request) {
	h.milestonePage(w, r, "student_milestones.html")
}

func (h *handlers) milestonePage(w http.ResponseWriter, r *http.Request, tmpl string) {
	ctx := r.Context()
	d := h.page(r, "milestones")
	c := milestoneList{ProjectID: queryInt(r, "project")}

	var err error
	c.Projects, err = h.api.ListProjects(ctx, session.Token(ctx))
	if err != nil {
		d.Error = loadError(err)
	}

	c.Milestones, err = h.loadMilestones(r, c.ProjectID)
	if errors.Is(err, view.ErrSuperseded) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		d.Error = loadError(err)
	}

	if r.URL.Query().Get("ok") != "" {
		d.Flash = "Saved."
	}
	d.Content = c
	h.render(w, r, http.StatusOK, tmpl, d)
}

type documentList struct {
	ProjectID int
	Projects  []model.Project
	Documents []model.Document
	Types     []model.DocumentType
}

var documentTypes = []model.DocumentType{
	model.DocumentReport,
	model.DocumentCode,
	model.DocumentPresentation,
	model.DocumentOther,
}

func (h *handlers) documentPage(r *http.Request) (*template.Data, documentList) {
	ctx := r.Context()
	token := session.Token(ctx)
	d := h.page(r, "documents")
	c := documentList{ProjectID: queryInt(r, "project"), Types: documentTypes}

	var (
		projErr, docErr error
		g               errgroup.Group
	)
	g.Go(func() error { c.Projects, projErr = h.api.ListProjects(ctx, token); return nil })
	g.Go(func() error { c.Documents, docErr = h.api.ListDocuments(ctx, token, c.ProjectID); return nil })
	_ = g.Wait()

	if docErr != nil {
		d.Error = loadError(docErr)
	} else if projErr != nil {
		d.Error = loadError(projErr)
	}
	return d, c
}

func (h *handlers) studentDocuments(w http.ResponseWriter, r *http.Request) {
	d, c := h.documentPage(r)
	if r.URL.Query().Get("ok") != "" {
		d.Flash = "Document uploaded."
	}
	d.Content = c
	h.render(w, r, http.StatusOK, "student_documents.html", d)
}

func (h *handlers) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	file, closeFile, err := upload(r, "file")
	if err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	defer closeFile()

	in := api.DocumentInput{
		Project:     formInt(r, "project"),
		Name:        strings.TrimSpace(r.FormValue("name")),
		Type:        model.DocumentType(r.FormValue("type")),
		Version:     formInt(r, "version"),
		Description: strings.TrimSpace(r.FormValue("description")),
		File:        file,
	}

	err = h.validate.Struct(in)
	if err == nil {
		_, err = h.api.UploadDocument(r.Context(), session.Token(r.Context()), in)
	}
	if err != nil {
		d, c := h.documentPage(r)
		status := formError(d, err)
		d.Content = c
		h.render(w, r, status, "student_documents.html", d)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/student/documents?project=%d&ok=1", in.Project), http.StatusSeeOther)
}

type evaluationRow struct {
	Evaluation model.Evaluation
	Rubric     *model.Rubric
}

type studentEvaluationsView struct {
	Rows []evaluationRow
}

func (h *handlers) studentEvaluations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := session.Token(ctx)
	d := h.page(r, "evaluations")

	var (
		evals   []model.Evaluation
		rubrics []model.Rubric
		evalErr error
		rubErr  error
		g       errgroup.Group
	)
	g.Go(func() error { evals, evalErr = h.api.ListEvaluations(ctx, token, queryInt(r, "project")); return nil })
	g.Go(func() error { rubrics, rubErr = h.api.ListRubrics(ctx, token); return nil })
	_ = g.Wait()

	if evalErr != nil {
		d.Error = loadError(evalErr)
	} else if rubErr != nil {
		d.Error = loadError(rubErr)
	}

	d.Content = studentEvaluationsView{Rows: joinRubrics(evals, rubrics)}
	h.render(w, r, http.StatusOK, "student_evaluations.html", d)
}

func joinRubrics(evals []model.Evaluation, rubrics []model.Rubric) []evaluationRow {
	byID := make(map[int]*model.Rubric, len(rubrics))
	for i := range rubrics {
		byID[rubrics[i].ID] = &rubrics[i]
	}
	rows := make([]evaluationRow, 0, len(evals))
	for _, e := range evals {
		row := evaluationRow{Evaluation: e}
		if e.Rubric != nil {
			row.Rubric = byID[*e.Rubric]
		}
		rows = append(rows, row)
	}
	return rows
}

type submissionList struct {
	Projects    []model.Project
	Submissions []model.Submission
}

func (h *handlers) submissionPage(r *http.Request) (*template.Data, submissionList) {
	ctx := r.Context()
	token := session.Token(ctx)
	d := h.page(r, "submissions")
	c := submissionList{}

	var (
		projErr, subErr error
		g               errgroup.Group
	)
	g.Go(func() error { c.Projects, projErr = h.api.ListProjects(ctx, token); return nil })
	g.Go(func() error { c.Submissions, subErr = h.api.ListSubmissions(ctx, token); return nil })
	_ = g.Wait()

	if subErr != nil {
		d.Error = loadError(subErr)
	} else if projErr != nil {
		d.Error = loadError(projErr)
	}
	return d, c
}

func (h *handlers) studentSubmissions(w http.ResponseWriter, r *http.Request) {
	d, c := h.submissionPage(r)
	if r.URL.Query().Get("ok") != "" {
		d.Flash = "Submission uploaded."
	}
	d.Content = c
	h.render(w, r, http.StatusOK, "student_submissions.html", d)
}

func (h *handlers) createSubmission(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	file, closeFile, err := upload(r, "file")
	if err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	defer closeFile()

	in := api.SubmissionInput{
		Project: formInt(r, "project"),
		Title:   strings.TrimSpace(r.FormValue("title")),
		File:    file,
	}

	err = h.validate.Struct(in)
	if err == nil {
		_, err = h.api.CreateSubmission(r.Context(), session.Token(r.Context()), in)
	}
	if err != nil {
		d, c := h.submissionPage(r)
		status := formError(d, err)
		d.Content = c
		h.render(w, r, status, "student_submissions.html", d)
		return
	}

	http.Redirect(w, r, "/student/submissions?ok=1", http.StatusSeeOther)
}
