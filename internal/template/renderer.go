package template

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ghaggin/fypportal/internal/fyp"
	"github.com/ghaggin/fypportal/internal/model"
)

const (
	templateDir string = "tmpl"
)

//go:embed tmpl/*.html
var files embed.FS

// Data is what every page gets. Content carries the page's own view model.
type Data struct {
	PageTitle string
	User      *model.User
	Theme     string
	Flash     string
	Error     string
	Fields    map[string]string
	Content   any
}

var funcs = template.FuncMap{
	"lower": strings.ToLower,
	"deref": func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	},
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
	"score": func(e model.Evaluation, criterion string) string {
		if v, ok := fyp.ScoreOf(e, criterion); ok {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return "-"
	},
	"avg": func(p *float64) string {
		if p == nil {
			return "-"
		}
		return strconv.FormatFloat(*p, 'f', 1, 64)
	},
	"field": func(prefix, name string) string { return prefix + name },
}

func Render(w http.ResponseWriter, status int, tmpl string, td *Data) error {
	t, err := template.New(tmpl).Funcs(funcs).ParseFS(files,
		templateDir+"/"+tmpl,
		templateDir+"/"+"base.html",
	)
	if err != nil {
		return err
	}

	buf := &bytes.Buffer{}

	err = t.ExecuteTemplate(buf, tmpl, td)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}
