package portal

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ghaggin/fypportal/internal/api"
	"github.com/ghaggin/fypportal/internal/model"
	"github.com/ghaggin/fypportal/internal/session"
)

type feedbackView struct {
	Thread    *model.FeedbackThread
	ThreadID  int
	ProjectID int
	Draft     string
}

func (h *handlers) feedbackThread(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "threadID")
	if !ok {
		http.NotFound(w, r)
		return
	}

	d := h.page(r, "feedback")
	c := feedbackView{ThreadID: id, ProjectID: queryInt(r, "project")}

	var err error
	c.Thread, err = h.api.GetFeedbackThread(r.Context(), session.Token(r.Context()), id)
	if err != nil {
		d.Error = loadError(err)
	}

	d.Content = c
	h.render(w, r, http.StatusOK, "feedback.html", d)
}

func (h *handlers) postFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "threadID")
	if !ok {
		http.NotFound(w, r)
		return
	}

	in := api.FeedbackMessageInput{
		Thread:  id,
		Project: formInt(r, "project"),
		Message: strings.TrimSpace(r.FormValue("message")),
	}

	err := h.validate.Struct(in)
	if err == nil {
		_, err = h.api.PostFeedbackMessage(r.Context(), session.Token(r.Context()), in)
	}
	if err != nil {
		d := h.page(r, "feedback")
		status := formError(d, err)
		c := feedbackView{ThreadID: id, ProjectID: in.Project, Draft: in.Message}
		var loadErr error
		c.Thread, loadErr = h.api.GetFeedbackThread(r.Context(), session.Token(r.Context()), id)
		addLoadError(d, loadErr)
		d.Content = c
		h.render(w, r, status, "feedback.html", d)
		return
	}

	http.Redirect(w, r, fmt.Sprintf("/feedback/%d/?project=%d", id, in.Project), http.StatusSeeOther)
}
