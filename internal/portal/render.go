package portal

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ghaggin/fypportal/internal/api"
	"github.com/ghaggin/fypportal/internal/session"
	"github.com/ghaggin/fypportal/internal/template"
	"github.com/ghaggin/fypportal/internal/validate"
)

const (
	themeCookie  = "fyp_theme"
	defaultTheme = "light"
)

func (h *handlers) page(r *http.Request, title string) *template.Data {
	return &template.Data{
		PageTitle: title,
		User:      session.UserFromContext(r.Context()),
		Theme:     theme(r),
		Fields:    map[string]string{},
	}
}

func (h *handlers) render(w http.ResponseWriter, r *http.Request, status int, tmpl string, d *template.Data) {
	if err := template.Render(w, status, tmpl, d); err != nil {
		h.log.Error("render failed", zap.String("template", tmpl), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// formError fills d from a validation or backend error and reports the
// status the page should be rendered with.
func formError(d *template.Data, err error) int {
	var verrs validate.Errors
	var fields api.FieldErrors
	var rerr *api.ResourceError
	var aerr *api.AuthError

	switch {
	case errors.As(err, &verrs):
		for k, v := range verrs {
			d.Fields[k] = v
		}
		d.Error = "Please correct the highlighted fields."
		return http.StatusUnprocessableEntity
	case errors.As(err, &rerr):
		for k := range rerr.Fields {
			d.Fields[k] = rerr.Fields.First(k)
		}
		d.Error = capitalize(rerr.Error())
		if len(rerr.Fields) > 0 {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	case errors.As(err, &fields):
		for k := range fields {
			d.Fields[k] = fields.First(k)
		}
		d.Error = "Please correct the highlighted fields."
		return http.StatusUnprocessableEntity
	case errors.As(err, &aerr):
		d.Error = aerr.Message
		return http.StatusUnauthorized
	}
	d.Error = "Something went wrong, please try again."
	return http.StatusBadGateway
}

// loadError is the static per-view message for a failed read.
func loadError(err error) string {
	var rerr *api.ResourceError
	if errors.As(err, &rerr) {
		return capitalize(rerr.Error())
	}
	return "Failed to load data"
}

// addLoadError keeps any message already on the page and appends the one
// for a failed read.
func addLoadError(d *template.Data, err error) {
	if err == nil {
		return
	}
	msg := loadError(err)
	if d.Error != "" {
		msg = d.Error + " " + msg
	}
	d.Error = msg
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func urlID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	return id, err == nil && id > 0
}

func formInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
	return n
}

func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

func formIDs(r *http.Request, name string) []int {
	var ids []int
	for _, raw := range strings.Split(r.FormValue(name), ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
			ids = append(ids, n)
		}
	}
	return ids
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// upload pulls a file part out of a multipart form. A missing file is nil.
func upload(r *http.Request, name string) (*api.File, func(), error) {
	f, hdr, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	return &api.File{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Body:        f,
	}, func() { f.Close() }, nil
}

// localPath returns back when it is a path on this site, else "/".
// Browsers read a backslash as a slash, so "/\host" names a host too.
func localPath(back string) string {
	if !strings.HasPrefix(back, "/") || strings.HasPrefix(back, "//") || strings.ContainsAny(back, "\\\r\n\t") {
		return "/"
	}
	u, err := url.Parse(back)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "/"
	}
	return back
}

func theme(r *http.Request) string {
	c, err := r.Cookie(themeCookie)
	if err != nil {
		return defaultTheme
	}
	switch c.Value {
	case "light", "dark":
		return c.Value
	}
	return defaultTheme
}
