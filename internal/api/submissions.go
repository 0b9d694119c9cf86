package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ghaggin/fypportal/internal/model"
)

type SubmissionInput struct {
	Project int    `validate:"required,gt=0"`
	Title   string `validate:"required,max=255"`
	File    *File  `validate:"required"`
}

func (in SubmissionInput) fields() []formField {
	return []formField{
		intField("project", in.Project),
		textField("title", in.Title),
		fileField("file", in.File),
	}
}

// FeedbackMessageInput names the project as well as the thread: the backend
// checks the sender belongs to that project before accepting the message.
type FeedbackMessageInput struct {
	Thread  int    `json:"thread" validate:"required,gt=0"`
	Project int    `json:"project" validate:"required,gt=0"`
	Message string `json:"message" validate:"required"`
}

func (c *Client) ListSubmissions(ctx context.Context, token string) ([]model.Submission, error) {
	var out []model.Submission
	if err := c.get(ctx, token, "/submissions/submissions/", nil, &out); err != nil {
		return nil, resourceErr("load", "submissions", err)
	}
	return out, nil
}

func (c *Client) CreateSubmission(ctx context.Context, token string, in SubmissionInput) (*model.Submission, error) {
	out := &model.Submission{}
	if err := c.sendForm(ctx, token, "/submissions/submissions/", in.fields(), out); err != nil {
		return nil, resourceErr("submit", "submission", err)
	}
	return out, nil
}

func (c *Client) GetFeedbackThread(ctx context.Context, token string, id int) (*model.FeedbackThread, error) {
	out := &model.FeedbackThread{}
	if err := c.get(ctx, token, fmt.Sprintf("/submissions/feedback-threads/%d/", id), nil, out); err != nil {
		return nil, resourceErr("load", "feedback thread", err)
	}
	return out, nil
}

func (c *Client) PostFeedbackMessage(ctx context.Context, token string, in FeedbackMessageInput) (*model.FeedbackMessage, error) {
	out := &model.FeedbackMessage{}
	if err := c.sendJSON(ctx, http.MethodPost, token, "/submissions/feedback-messages/", in, out); err != nil {
		return nil, resourceErr("post", "feedback message", err)
	}
	return out, nil
}
