package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ghaggin/fypportal/internal/model"
)

type ProposalInput struct {
	Title       string `validate:"required,max=255"`
	Description string `validate:"required"`
	Supervisor  int    `validate:"required,gt=0"`
	Batch       string
	Document    *File `validate:"required"`
}

func (in ProposalInput) fields() []formField {
	return []formField{
		textField("title", in.Title),
		textField("description", in.Description),
		intField("supervisor", in.Supervisor),
		textField("batch", in.Batch),
		fileField("document", in.Document),
	}
}

// ProposalUpdate only sends the fields that are set.
type ProposalUpdate struct {
	Status   *model.ProposalStatus `json:"status,omitempty"`
	Feedback *string               `json:"feedback,omitempty"`
}

func (c *Client) ListProposals(ctx context.Context, token string) ([]model.Proposal, error) {
	var out []model.Proposal
	if err := c.get(ctx, token, "/fyps/proposals/", nil, &out); err != nil {
		return nil, resourceErr("load", "proposals", err)
	}
	return out, nil
}

// CreateProposal always goes out as multipart, never JSON, since it carries
// the proposal document.
func (c *Client) CreateProposal(ctx context.Context, token string, in ProposalInput) (*model.Proposal, error) {
	out := &model.Proposal{}
	if err := c.sendForm(ctx, token, "/fyps/proposals/", in.fields(), out); err != nil {
		return nil, &ResourceError{Op: "submit", Resource: "proposal", Fields: fieldErrorsOf(err), Err: err}
	}
	return out, nil
}

func (c *Client) UpdateProposal(ctx context.Context, token string, id int, in ProposalUpdate) (*model.Proposal, error) {
	out := &model.Proposal{}
	if err := c.sendJSON(ctx, http.MethodPatch, token, fmt.Sprintf("/fyps/proposals/%d/", id), in, out); err != nil {
		return nil, resourceErr("update", "proposal", err)
	}
	return out, nil
}

type ProjectInput struct {
	ProposalID  int                 `json:"proposal_id" validate:"required,gt=0"`
	Title       string              `json:"title" validate:"required,max=255"`
	Description string              `json:"description" validate:"required"`
	Supervisor  *int                `json:"supervisor,omitempty"`
	Students    []int               `json:"students" validate:"required,min=1"`
	Status      model.ProjectStatus `json:"status,omitempty"`
	StartDate   string              `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string              `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type ProjectUpdate struct {
	Title       *string              `json:"title,omitempty"`
	Description *string              `json:"description,omitempty"`
	Status      *model.ProjectStatus `json:"status,omitempty"`
	StartDate   *string              `json:"start_date,omitempty"`
	EndDate     *string              `json:"end_date,omitempty"`
}

func (c *Client) ListProjects(ctx context.Context, token string) ([]model.Project, error) {
	var out []model.Project
	if err := c.get(ctx, token, "/fyps/projects/", nil, &out); err != nil {
		return nil, resourceErr("load", "projects", err)
	}
	return out, nil
}

func (c *Client) CreateProject(ctx context.Context, token string, in ProjectInput) (*model.Project, error) {
	out := &model.Project{}
	if err := c.sendJSON(ctx, http.MethodPost, token, "/fyps/projects/", in, out); err != nil {
		return nil, resourceErr("create", "project", err)
	}
	return out, nil
}

func (c *Client) UpdateProject(ctx context.Context, token string, id int, in ProjectUpdate) (*model.Project, error) {
	out := &model.Project{}
	if err := c.sendJSON(ctx, http.MethodPatch, token, fmt.Sprintf("/fyps/projects/%d/", id), in, out); err != nil {
		return nil, resourceErr("update", "project", err)
	}
	return out, nil
}

type MilestoneInput struct {
	Project     int    `json:"project" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description,omitempty"`
	DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02"`
}

type MilestoneUpdate struct {
	Title          *string                `json:"title,omitempty"`
	Description    *string                `json:"description,omitempty"`
	DueDate        *string                `json:"due_date,omitempty"`
	Status         *model.MilestoneStatus `json:"status,omitempty"`
	CompletionDate *string                `json:"completion_date,omitempty"`
}

// ListMilestones returns every visible milestone, or only those of
// projectID when it is positive.
func (c *Client) ListMilestones(ctx context.Context, token string, projectID int) ([]model.Milestone, error) {
	var out []model.Milestone
	if err := c.get(ctx, token, "/fyps/milestones/", projectQuery(projectID), &out); err != nil {
		return nil, resourceErr("load", "milestones", err)
	}
	return out, nil
}

func (c *Client) CreateMilestone(ctx context.Context, token string, in MilestoneInput) (*model.Milestone, error) {
	out := &model.Milestone{}
	if err := c.sendJSON(ctx, http.MethodPost, token, "/fyps/milestones/", in, out); err != nil {
		return nil, resourceErr("create", "milestone", err)
	}
	return out, nil
}

func (c *Client) UpdateMilestone(ctx context.Context, token string, id int, in MilestoneUpdate) (*model.Milestone, error) {
	out := &model.Milestone{}
	if err := c.sendJSON(ctx, http.MethodPatch, token, fmt.Sprintf("/fyps/milestones/%d/", id), in, out); err != nil {
		return nil, resourceErr("update", "milestone", err)
	}
	return out, nil
}

type DocumentInput struct {
	Project     int                `validate:"required,gt=0"`
	Name        string             `validate:"required,max=255"`
	Type        model.DocumentType `validate:"omitempty,oneof=report code presentation other"`
	Version     int                `validate:"gte=0"`
	Description string
	File        *File `validate:"required"`
}

func (in DocumentInput) fields() []formField {
	f := []formField{
		intField("project", in.Project),
		textField("name", in.Name),
		textField("type", string(in.Type)),
		textField("description", in.Description),
		fileField("file", in.File),
	}
	if in.Version > 0 {
		f = append(f, intField("version", in.Version))
	}
	return f
}

func (c *Client) ListDocuments(ctx context.Context, token string, projectID int) ([]model.Document, error) {
	var out []model.Document
	if err := c.get(ctx, token, "/fyps/documents/", projectQuery(projectID), &out); err != nil {
		return nil, resourceErr("load", "documents", err)
	}
	return out, nil
}

func (c *Client) UploadDocument(ctx context.Context, token string, in DocumentInput) (*model.Document, error) {
	out := &model.Document{}
	if err := c.sendForm(ctx, token, "/fyps/documents/", in.fields(), out); err != nil {
		return nil, resourceErr("upload", "document", err)
	}
	return out, nil
}

func (c *Client) GetAnalytics(ctx context.Context, token string) (*model.Analytics, error) {
	out := &model.Analytics{}
	if err := c.get(ctx, token, "/fyps/analytics/", nil, out); err != nil {
		return nil, resourceErr("load", "analytics", err)
	}
	return out, nil
}
