package portal

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ghaggin/fypportal/internal/api"
	"github.com/ghaggin/fypportal/internal/fyp"
	"github.com/ghaggin/fypportal/internal/model"
	"github.com/ghaggin/fypportal/internal/session"
)

const resetSentMessage = "If the email exists, a reset link was sent."

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Remember bool   `form:"remember"`
}

func (h *handlers) home(w http.ResponseWriter, r *http.Request) {
	d := h.page(r, "FYP Portal")
	h.render(w, r, http.StatusOK, "home.html", d)
}

func (h *handlers) loginPage(w http.ResponseWriter, r *http.Request) {
	if u := session.UserFromContext(r.Context()); u != nil {
		http.Redirect(w, r, fyp.RedirectFor(u), http.StatusSeeOther)
		return
	}
	d := h.page(r, "login")
	if r.URL.Query().Get("registered") != "" {
		d.Flash = "Account created. You can log in now."
	}
	d.Content = loginForm{}
	h.render(w, r, http.StatusOK, "login.html", d)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	form := loginForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		Remember: r.FormValue("remember") != "",
	}

	d := h.page(r, "login")
	d.Content = loginForm{Email: form.Email, Remember: form.Remember}

	if err := h.validate.Struct(form); err != nil {
		h.render(w, r, formError(d, err), "login.html", d)
		return
	}

	user, err := h.store.Login(r.Context(), form.Email, form.Password, form.Remember)
	if err != nil {
		h.log.Info("login failed", zap.String("email", form.Email), zap.Error(err))
		status := formError(d, err)
		var authErr *api.AuthError
		if !errors.As(err, &authErr) {
			d.Error = "Login failed, please try again."
		}
		h.render(w, r, status, "login.html", d)
		return
	}

	http.Redirect(w, r, fyp.RedirectFor(user), http.StatusSeeOther)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Logout(r.Context()); err != nil {
		h.log.Warn("logout failed", zap.Error(err))
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *handlers) registerPage(w http.ResponseWriter, r *http.Request) {
	d := h.page(r, "register")
	d.Content = api.RegistrationInput{Role: model.RoleStudent}
	h.render(w, r, http.StatusOK, "register.html", d)
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	in := api.RegistrationInput{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Username: strings.TrimSpace(r.FormValue("username")),
		First:    strings.TrimSpace(r.FormValue("first_name")),
		Last:     strings.TrimSpace(r.FormValue("last_name")),
		Role:     model.ParseRole(r.FormValue("role")),
		Password: r.FormValue("password"),
		RePass:   r.FormValue("re_password"),
	}

	d := h.page(r, "register")
	shown := in
	shown.Password, shown.RePass = "", ""
	d.Content = shown

	if err := h.validate.Struct(in); err != nil {
		h.render(w, r, formError(d, err), "register.html", d)
		return
	}
	if _, err := h.api.Register(r.Context(), in); err != nil {
		h.render(w, r, formError(d, err), "register.html", d)
		return
	}

	http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
}

func (h *handlers) resetPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "reset.html", h.page(r, "password reset"))
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	d := h.page(r, "password reset")

	if err := h.validate.Var("email", email, "required,email"); err != nil {
		h.render(w, r, formError(d, err), "reset.html", d)
		return
	}
	if err := h.api.RequestPasswordReset(r.Context(), email); err != nil {
		h.log.Info("password reset request failed", zap.Error(err))
		h.render(w, r, formError(d, err), "reset.html", d)
		return
	}

	d.Flash = resetSentMessage
	h.render(w, r, http.StatusOK, "reset.html", d)
}

// setTheme stores the display preference in its own cookie; logging out
// leaves it alone.
func (h *handlers) setTheme(w http.ResponseWriter, r *http.Request) {
	value := r.FormValue("theme")
	if value != "dark" {
		value = defaultTheme
	}
	http.SetCookie(w, &http.Cookie{
		Name:     themeCookie,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().AddDate(1, 0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, localPath(r.FormValue("back")), http.StatusSeeOther)
}
