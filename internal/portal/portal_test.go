package portal

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ghaggin/fypportal/internal/api"
	"github.com/ghaggin/fypportal/internal/session"
	"github.com/ghaggin/fypportal/internal/validate"
)

var users = map[string]map[string]any{
	"s@uni.edu": {"id": 7, "email": "s@uni.edu", "role": "student", "first_name": "Sam"},
	"v@uni.edu": {"id": 4, "email": "v@uni.edu", "role": "supervisor", "first_name": "Vera"},
	"a@uni.edu": {"id": 1, "email": "a@uni.edu", "role": "admin", "first_name": "Ada"},
}

// backend fakes the FYP REST API. Access tokens are "tok-<email>".
type backend struct {
	mu       sync.Mutex
	calls    map[string]int
	bodies   map[string][]byte
	parts    map[string]string
	failures map[string]int
}

func newBackend() *backend {
	return &backend{
		calls:    map[string]int{},
		bodies:   map[string][]byte{},
		parts:    map[string]string{},
		failures: map[string]int{},
	}
}

func (b *backend) record(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := r.Method + " " + r.URL.Path
	b.calls[key]++
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		mr, err := r.MultipartReader()
		if err != nil {
			return
		}
		for {
			p, err := mr.NextPart()
			if err != nil {
				break
			}
			v, _ := io.ReadAll(p)
			b.parts[p.FormName()] = string(v)
		}
		return
	}
	body, _ := io.ReadAll(r.Body)
	b.bodies[key] = body
}

func (b *backend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[key]
}

func (b *backend) body(key string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[key]
}

func (b *backend) part(name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.parts[name]
}

func (b *backend) fail(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = status
}

func (b *backend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b.record(r)
			b.mu.Lock()
			status := b.failures[r.URL.Path]
			b.mu.Unlock()
			if status != 0 {
				writeJSON(w, status, map[string]string{"detail": "boom"})
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Post("/api/token/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.Unmarshal(b.body("POST /api/token/"), &body)
		if _, ok := users[body["email"]]; !ok || body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access": "tok-" + body["email"], "refresh": "ref"})
	})
	r.Get("/api/users/me/", func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer tok-")
		u, ok := users[email]
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid"})
			return
		}
		writeJSON(w, http.StatusOK, u)
	})
	r.Get("/api/fyps/proposals/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "title": "Smart Campus", "status": "pending", "student": 9, "supervisor": 5},
			{"id": 2, "title": "Crop Yield", "status": "approved", "student": 7, "supervisor": 4},
		})
	})
	r.Post("/api/fyps/proposals/", func(w http.ResponseWriter, r *http.Request) {
		if b.part("title") == "Rejected title" {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"Ensure this field has no more than 255 characters."}})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": 3, "title": b.part("title"), "status": "pending"})
	})
	r.Patch("/api/fyps/proposals/{id}/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "status": "approved"})
	})
	r.Get("/api/fyps/projects/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 11, "title": "Crop Yield", "status": "active", "students": []int{7}}})
	})
	r.Get("/api/fyps/milestones/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 21, "project": 11, "title": "Literature review", "due_date": "2026-11-01", "status": "pending"}})
	})
	r.Patch("/api/fyps/milestones/{id}/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 21, "project": 11, "status": "completed"})
	})
	r.Get("/api/announcements/notifications/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 31, "message": "Proposal approved", "type": "success", "read": false},
			{"id": 32, "message": "Welcome", "type": "info", "read": true},
		})
	})
	r.Get("/api/evaluations/rubrics/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 41, "name": "Final", "criteria": []map[string]any{
			{"name": "Originality", "max": 10},
			{"name": "Report", "max": 20},
		}}})
	})
	r.Get("/api/evaluations/evaluations/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{})
	})
	r.Post("/api/evaluations/evaluations/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"id": 51})
	})
	return r
}

type portal struct {
	srv     *httptest.Server
	backend *backend
}

func newPortal(t *testing.T) *portal {
	t.Helper()

	be := newBackend()
	apiSrv := httptest.NewServer(be.router())
	t.Cleanup(apiSrv.Close)

	metrics := api.NewMetrics(prometheus.NewRegistry())
	client, err := api.NewClient(apiSrv.URL+"/api", &http.Client{Transport: metrics.RoundTripper(http.DefaultTransport)}, nil)
	require.NoError(t, err)

	store := session.NewStore(client, nil, session.Options{
		DurableLifetime: time.Hour,
		Lifetime:        time.Hour,
		ProfileTTL:      time.Minute,
	}, nil)

	h := newHandlers(zap.NewNop(), store, client, validate.New())
	srv := httptest.NewServer(h.router())
	t.Cleanup(srv.Close)

	return &portal{srv: srv, backend: be}
}

func (p *portal) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (p *portal) login(t *testing.T, email string) *http.Client {
	t.Helper()
	c := p.browser(t)
	res, err := c.PostForm(p.srv.URL+"/login", url.Values{"email": {email}, "password": {"secret"}})
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	return c
}

func get(t *testing.T, c *http.Client, u string) (*http.Response, string) {
	t.Helper()
	res, err := c.Get(u)
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	return res, string(body)
}

func Test_login_redirectsByRole(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	p := newPortal(t)

	for email, want := range map[string]string{
		"s@uni.edu": "/student",
		"v@uni.edu": "/supervisor",
		"a@uni.edu": "/admin",
	} {
		c := p.browser(t)
		res, err := c.PostForm(p.srv.URL+"/login", url.Values{"email": {email}, "password": {"secret"}, "remember": {"true"}})
		require.NoError(err)
		res.Body.Close()
		assert.Equal(http.StatusSeeOther, res.StatusCode)
		assert.Equal(want, res.Header.Get("Location"), email)
	}
}

func Test_login_badCredentials(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	p := newPortal(t)

	c := p.browser(t)
	res, err := c.PostForm(p.srv.URL+"/login", url.Values{"email": {"s@uni.edu"}, "password": {"nope"}})
	require.NoError(err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	assert.Equal(http.StatusUnauthorized, res.StatusCode)
	assert.Contains(string(body), "No active account found with the given credentials")

	res, _ = get(t, c, p.srv.URL+"/student")
	assert.Equal("/login", res.Header.Get("Location"))
}

func Test_requireAuth(t *testing.T) {
	assert := assert.New(t)
	p := newPortal(t)

	res, _ := get(t, p.browser(t), p.srv.URL+"/student/proposals")
	assert.Equal(http.StatusSeeOther, res.StatusCode)
	assert.Equal("/login", res.Header.Get("Location"))
}

func Test_requireRole(t *testing.T) {
	assert := assert.New(t)
	p := newPortal(t)

	student := p.login(t, "s@uni.edu")
	res, _ := get(t, student, p.srv.URL+"/supervisor/")
	assert.Equal(http.StatusForbidden, res.StatusCode)
	res, _ = get(t, student, p.srv.URL+"/admin/")
	assert.Equal(http.StatusForbidden, res.StatusCode)

	admin := p.login(t, "a@uni.edu")
	res, _ = get(t, admin, p.srv.URL+"/student/")
	assert.Equal(http.StatusForbidden, res.StatusCode)
	res, _ = get(t, admin, p.srv.URL+"/admin/")
	assert.Equal(http.StatusOK, res.StatusCode)
}

func Test_logout(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	p := newPortal(t)

	c := p.login(t, "s@uni.edu")
	res, err := c.PostForm(p.srv.URL+"/logout", nil)
	require.NoError(err)
	res.Body.Close()
	assert.Equal("/login", res.Header.Get("Location"))

	res, _ = get(t, c, p.srv.URL+"/student/")
	assert.Equal("/login", res.Header.Get("Location"))
}

func Test_studentDashboard_partialFailure(t *testing.T) {
	assert := assert.New(t)
	p := newPortal(t)
	p.backend.fail("/api/fyps/milestones/", http.StatusInternalServerError)

	res, body := get(t, p.login(t, "s@uni.edu"), p.srv.URL+"/student/")
	assert.Equal(http.StatusOK, res.StatusCode)
	assert.Contains(body, "Failed to load milestones")
	assert.Contains(body, "Crop Yield")
	assert.Contains(body, "Proposal approved")
}

func postProposal(t *testing.T, c *http.Client, u, title string, supervisor string) (*http.Response, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	_ = mw.WriteField("title", title)
	_ = mw.WriteField("description", "Sensors everywhere")
	_ = mw.WriteField("supervisor", supervisor)
	fw, err := mw.CreateFormFile("document", "pitch.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	res, err := c.Post(u, mw.FormDataContentType(), buf)
	require.NoError(t, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	return res, string(body)
}

func Test_submitProposal_duplicateTitle(t *testing.T) {
	assert := assert.New(t)
	p := newPortal(t)
	c := p.login(t, "s@uni.edu")

	res, body := postProposal(t, c, p.srv.URL+"/student/proposals", "  smart CAMPUS ", "4")
	assert.Equal(http.StatusConflict, res.StatusCode)
	assert.Contains(body, "Please choose a unique title.")
	assert.Equal(0, p.backend.count("POST /api/fyps/proposals/"))
}

func Test_submitProposal(t *testing.T) {
	assert := assert.New(t)
	p := newPortal(t)
	c := p.login(t, "s@uni.edu")

	// Same title to the same supervisor is allowed.
	res, _ := postProposal(t, c, p.srv.URL+"/student/proposals", "Smart Campus", "5")
	assert.Equal(http.StatusSeeOther, res.StatusCode)
	assert.Equal("/student/proposals?ok=1", res.Header.Get("Location"))
	assert.Equal(1, p.backend.count("POST /api/fyps/proposals/"))
	assert.Equal("Smart Campus", p.backend.part("title"))
	assert.Equal("5", p.backend.part("supervisor"))
	assert.Equal("%PDF-1.4", p.backend.part("document"))
}

func Test_submitProposal_missingFields(t *testing.T) {
	assert := assert.New(t)
	p := newPortal(t)
	c := p.login(t, "s@uni.edu")

	res, body := postProposal(t, c, p.srv.URL+"/student/proposals", "", "")
	assert.Equal(http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(body, "Please correct the highlighted fields.")
	assert.Equal(0, p.backend.count("POST /api/fyps/proposals/"))
}

func Test_decideProposal(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	p := newPortal(t)
	c := p.login(t, "v@uni.edu")

	res, err := c.PostForm(p.srv.URL+"/proposals/1/decision", url.Values{"status": {"approved"}, "feedback": {"Good scope"}})
	require.NoError(err)
	res.Body.Close()
	assert.Equal(http.StatusSeeOther, res.StatusCode)
	assert.Equal("/supervisor/proposals?decided=approved", res.Header.Get("Location"))
	assert.JSONEq(`{"status":"approved","feedback":"Good scope"}`, string(p.backend.body("PATCH /api/fyps/proposals/1/")))

	res, err = c.PostForm(p.srv.URL+"/proposals/1/decision", url.Values{"status": {"pending"}})
	require.NoError(err)
	res.Body.Close()
	assert.Equal(http.StatusBadRequest, res.StatusCode)

	student := p.login(t, "s@uni.edu")
	res, err = student.PostForm(p.srv.URL+"/proposals/1/decision", url.Values{"status": {"approved"}})
	require.NoError(err)
	res.Body.Close()
	assert.Equal(http.StatusForbidden, res.StatusCode)
}

func Test_listNotifications(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	p := newPortal(t)

	res, body := get(t, p.login(t, "v@uni.edu"), p.srv.URL+"/notifications")
	require.Equal(http.StatusOK, res.StatusCode)

	var feed notificationFeed
	require.NoError(json.Unmarshal([]byte(body), &feed))
	assert.Equal(1, feed.Unread)
	assert.Len(feed.Notifications, 2)
}

func Test_submitEvaluation(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	p := newPortal(t)
	c := p.login(t, "v@uni.edu")

	form := url.Values{
		"project":           {"11"},
		"rubric":            {"41"},
		"score_Originality": {"12"},
		"score_Report":      {"15"},
	}
	res, err := c.PostForm(p.srv.URL+"/supervisor/evaluations", form)
	require.NoError(err)
	res.Body.Close()
	assert.Equal(http.StatusUnprocessableEntity, res.StatusCode)
	assert.Equal(0, p.backend.count("POST /api/evaluations/evaluations/"))

	form.Set("score_Originality", "8")
	form.Set("comments", "Solid")
	res, err = c.PostForm(p.srv.URL+"/supervisor/evaluations", form)
	require.NoError(err)
	res.Body.Close()
	assert.Equal(http.StatusSeeOther, res.StatusCode)

	var sent api.EvaluationInput
	require.NoError(json.Unmarshal(p.backend.body("POST /api/evaluations/evaluations/"), &sent))
	assert.Equal(41, sent.Rubric)
	assert.Equal(11, sent.Project)
	assert.Equal(23.0, sent.TotalScore)
	assert.Equal("Solid", sent.Comments)
}

func Test_setTheme(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	p := newPortal(t)
	c := p.browser(t)

	res, err := c.PostForm(p.srv.URL+"/preferences/theme", url.Values{"theme": {"dark"}, "back": {"//evil.example"}})
	require.NoError(err)
	res.Body.Close()
	assert.Equal("/", res.Header.Get("Location"))

	_, body := get(t, c, p.srv.URL+"/")
	assert.Contains(body, `data-theme="dark"`)
}

func Test_setTheme_redirectStaysLocal(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	p := newPortal(t)
	c := p.browser(t)

	for back, want := range map[string]string{
		"/student/proposals":     "/student/proposals",
		"/\\evil.example":        "/",
		"//evil.example":         "/",
		"https://evil.example/":  "/",
		"/\\/evil.example":       "/",
		"javascript:alert(1)":    "/",
		"":                       "/",
		"/login?next=%2Fstudent": "/login?next=%2Fstudent",
		"/\t/evil.example":       "/",
		"/%5Cevil.example":       "/%5Cevil.example",
	} {
		res, err := c.PostForm(p.srv.URL+"/preferences/theme", url.Values{"theme": {"light"}, "back": {back}})
		require.NoError(err)
		res.Body.Close()
		assert.Equal(http.StatusSeeOther, res.StatusCode, back)
		assert.Equal(want, res.Header.Get("Location"), back)
	}
}

func Test_submitProposal_backendFieldErrors(t *testing.T) {
	assert := assert.New(t)
	p := newPortal(t)
	c := p.login(t, "s@uni.edu")

	res, body := postProposal(t, c, p.srv.URL+"/student/proposals", "Rejected title", "4")
	assert.Equal(http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(body, "Failed to submit proposal")
	assert.Contains(body, "Ensure this field has no more than 255 characters.")
	assert.Equal(1, p.backend.count("POST /api/fyps/proposals/"))
}

func Test_updateMilestone(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	p := newPortal(t)
	c := p.login(t, "v@uni.edu")

	res, err := c.PostForm(p.srv.URL+"/supervisor/milestones/21", url.Values{"project": {"11"}, "status": {"completed"}})
	require.NoError(err)
	res.Body.Close()
	assert.Equal(http.StatusSeeOther, res.StatusCode)
	assert.Equal("/supervisor/milestones?project=11&ok=1", res.Header.Get("Location"))

	var sent map[string]any
	require.NoError(json.Unmarshal(p.backend.body("PATCH /api/fyps/milestones/21/"), &sent))
	assert.Equal("completed", sent["status"])
	assert.Equal(time.Now().Format(time.DateOnly), sent["completion_date"])
	assert.NotContains(sent, "title")

	res, err = c.PostForm(p.srv.URL+"/supervisor/milestones/21", url.Values{"project": {"11&next=//evil.example"}, "status": {"pending"}})
	require.NoError(err)
	res.Body.Close()
	assert.Equal("/supervisor/milestones?project=0&ok=1", res.Header.Get("Location"))
}

func Test_createMilestone_failureShowsLoadErrors(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	p := newPortal(t)
	c := p.login(t, "v@uni.edu")
	p.backend.fail("/api/fyps/projects/", http.StatusInternalServerError)

	res, err := c.PostForm(p.srv.URL+"/supervisor/milestones", url.Values{"project": {"11"}, "due_date": {"2026-12-01"}})
	require.NoError(err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	assert.Equal(http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(string(body), "Please correct the highlighted fields. Failed to load projects")
	assert.Contains(string(body), "Literature review")
	assert.Equal(0, p.backend.count("POST /api/fyps/milestones/"))
}

func Test_postFeedback_failureShowsLoadError(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	p := newPortal(t)
	c := p.login(t, "s@uni.edu")
	p.backend.fail("/api/submissions/feedback-threads/3/", http.StatusInternalServerError)

	res, err := c.PostForm(p.srv.URL+"/feedback/3/", url.Values{"project": {"11"}, "message": {"  "}})
	require.NoError(err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)

	assert.Equal(http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(string(body), "Failed to load feedback thread")
	assert.Equal(0, p.backend.count("POST /api/submissions/feedback-messages/"))
}

func Test_supervisorEvaluations_showsRubricMax(t *testing.T) {
	assert := assert.New(t)
	p := newPortal(t)

	res, body := get(t, p.login(t, "v@uni.edu"), p.srv.URL+"/supervisor/evaluations?project=11&rubric=41")
	assert.Equal(http.StatusOK, res.StatusCode)
	assert.Contains(body, "Out of 30 points.")
	assert.Contains(body, `name="score_Originality"`)
}
