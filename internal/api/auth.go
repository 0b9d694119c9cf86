package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ghaggin/fypportal/internal/model"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ExchangeCredentials trades an email/password for an access/refresh pair.
func (c *Client) ExchangeCredentials(ctx context.Context, email, password string) (model.TokenPair, error) {
	var tokens model.TokenPair
	err := c.sendJSON(ctx, http.MethodPost, "", "/token/", credentials{Email: email, Password: password}, &tokens)
	if err != nil {
		if StatusCode(err) == 0 {
			return model.TokenPair{}, err
		}
		msg := detailOf(err)
		if msg == "" {
			msg = "login failed"
		}
		return model.TokenPair{}, &AuthError{Message: msg}
	}
	if tokens.Access == "" {
		return model.TokenPair{}, &AuthError{Message: "login failed"}
	}
	return withExpiries(tokens), nil
}

func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*model.User, error) {
	u := &model.User{}
	if err := c.get(ctx, accessToken, "/users/me/", nil, u); err != nil {
		c.log.Debug("profile fetch failed")
		return nil, errors.Join(ErrProfileFetch, err)
	}
	return u, nil
}

// RequestPasswordReset never reveals whether the address has an account:
// unknown addresses resolve like known ones. Only transport failures and
// validation errors reach the caller.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	err := c.sendJSON(ctx, http.MethodPost, "", "/auth/users/reset_password/", map[string]string{"email": email}, nil)
	if err == nil {
		return nil
	}

	switch code := StatusCode(err); {
	case code == 0:
		return err
	case code == http.StatusNotFound:
		return nil
	case code == http.StatusBadRequest:
		if fields := fieldErrorsOf(err); fields.First("email") != "" {
			return fields
		}
		if d := detailOf(err); d != "" {
			return &AuthError{Message: d}
		}
		return nil
	}
	return &AuthError{Message: "password reset request failed"}
}

type RegistrationInput struct {
	Email    string     `json:"email" validate:"required,email"`
	Username string     `json:"username,omitempty"`
	First    string     `json:"first_name" validate:"required"`
	Last     string     `json:"last_name" validate:"required"`
	Role     model.Role `json:"role" validate:"required,oneof=student supervisor"`
	Password string     `json:"password" validate:"required,min=8"`
	RePass   string     `json:"re_password" validate:"required,eqfield=Password"`
}

// Register creates an account. Backend per-field errors come back as
// FieldErrors so the form can show them next to each input.
func (c *Client) Register(ctx context.Context, in RegistrationInput) (*model.User, error) {
	u := &model.User{}
	err := c.sendJSON(ctx, http.MethodPost, "", "/auth/users/", in, u)
	if err != nil {
		if fields := fieldErrorsOf(err); fields != nil {
			return nil, fields
		}
		return nil, resourceErr("register", "account", err)
	}
	return u, nil
}
