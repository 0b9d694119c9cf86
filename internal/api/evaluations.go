package api

import (
	"context"
	"net/http"

	"github.com/ghaggin/fypportal/internal/model"
)

type EvaluationInput struct {
	Project    int           `json:"project" validate:"required,gt=0"`
	Rubric     int           `json:"rubric" validate:"required,gt=0"`
	Scores     []model.Score `json:"scores" validate:"required,min=1"`
	TotalScore float64       `json:"total_score" validate:"gte=0"`
	Comments   string        `json:"comments,omitempty"`
}

func (c *Client) ListRubrics(ctx context.Context, token string) ([]model.Rubric, error) {
	var out []model.Rubric
	if err := c.get(ctx, token, "/evaluations/rubrics/", nil, &out); err != nil {
		return nil, resourceErr("load", "rubrics", err)
	}
	return out, nil
}

func (c *Client) ListEvaluations(ctx context.Context, token string, projectID int) ([]model.Evaluation, error) {
	var out []model.Evaluation
	if err := c.get(ctx, token, "/evaluations/evaluations/", projectQuery(projectID), &out); err != nil {
		return nil, resourceErr("load", "evaluations", err)
	}
	return out, nil
}

func (c *Client) SubmitEvaluation(ctx context.Context, token string, in EvaluationInput) (*model.Evaluation, error) {
	out := &model.Evaluation{}
	if err := c.sendJSON(ctx, http.MethodPost, token, "/evaluations/evaluations/", in, out); err != nil {
		return nil, resourceErr("submit", "evaluation", err)
	}
	return out, nil
}
