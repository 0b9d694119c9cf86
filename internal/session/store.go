package session

import (
	"context"
	"encoding/gob"
	"errors"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ghaggin/fypportal/internal/api"
	"github.com/ghaggin/fypportal/internal/config"
	"github.com/ghaggin/fypportal/internal/model"
)

const (
	sessionKey = "session"

	durableCookie   = "fyp_remember"
	ephemeralCookie = "fyp_session"
)

// Location says which storage currently holds the token pair.
type Location int

const (
	Nowhere Location = iota
	Durable
	Ephemeral
)

// Authenticator is the part of the backend client the store needs.
type Authenticator interface {
	ExchangeCredentials(ctx context.Context, email, password string) (model.TokenPair, error)
	FetchProfile(ctx context.Context, accessToken string) (*model.User, error)
}

// Store is the only writer of authentication state. Handlers read an
// immutable snapshot through FromContext.
type Store struct {
	durable   *scs.SessionManager
	ephemeral *scs.SessionManager

	auth       Authenticator
	log        *zap.Logger
	profileTTL time.Duration
	now        func() time.Time
}

type Options struct {
	DurableLifetime time.Duration
	Lifetime        time.Duration
	ProfileTTL      time.Duration
	CookieSecure    bool
}

type Params struct {
	fx.In

	Config  *config.Config
	Log     *zap.Logger
	Client  *api.Client
	Backend scs.Store
}

func New(p Params) (*Store, error) {
	return NewStore(p.Client, p.Backend, Options{
		DurableLifetime: p.Config.Session.DurableLifetime,
		Lifetime:        p.Config.Session.Lifetime,
		ProfileTTL:      p.Config.Session.ProfileTTL,
		CookieSecure:    p.Config.Session.CookieSecure,
	}, p.Log), nil
}

// NewStore builds the two storages. durableBackend holds remember-me
// sessions; browser-session ones always live in memory.
func NewStore(auth Authenticator, durableBackend scs.Store, opts Options, log *zap.Logger) *Store {
	gob.Register(&model.Session{})

	if durableBackend == nil {
		durableBackend = memstore.New()
	}
	if log == nil {
		log = zap.NewNop()
	}

	durable := scs.New()
	durable.Store = durableBackend
	durable.Lifetime = opts.DurableLifetime
	durable.Cookie.Name = durableCookie
	durable.Cookie.Persist = true
	durable.Cookie.Secure = opts.CookieSecure
	durable.Cookie.SameSite = http.SameSiteLaxMode

	ephemeral := scs.New()
	ephemeral.Store = memstore.New()
	ephemeral.Lifetime = opts.Lifetime
	ephemeral.Cookie.Name = ephemeralCookie
	ephemeral.Cookie.Persist = false
	ephemeral.Cookie.Secure = opts.CookieSecure
	ephemeral.Cookie.SameSite = http.SameSiteLaxMode

	for _, m := range []*scs.SessionManager{durable, ephemeral} {
		m.ErrorFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("session storage failed", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		if m.Lifetime <= 0 {
			m.Lifetime = 24 * time.Hour
		}
	}

	return &Store{
		durable:    durable,
		ephemeral:  ephemeral,
		auth:       auth,
		log:        log,
		profileTTL: opts.ProfileTTL,
		now:        time.Now,
	}
}

// Wrap loads and saves both storages around next.
func (s *Store) Wrap(next http.Handler) http.Handler {
	return s.durable.LoadAndSave(s.ephemeral.LoadAndSave(next))
}

// Login exchanges the credentials, resolves the profile with the new access
// token and only then writes the session into the storage remember picks.
// The other storage is cleared. On failure nothing stored changes.
func (s *Store) Login(ctx context.Context, email, password string, remember bool) (*model.User, error) {
	tokens, err := s.auth.ExchangeCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	user, err := s.auth.FetchProfile(ctx, tokens.Access)
	if err != nil {
		return nil, err
	}

	target, other := s.ephemeral, s.durable
	if remember {
		target, other = s.durable, s.ephemeral
	}

	if err := other.Destroy(ctx); err != nil {
		return nil, err
	}
	if err := target.RenewToken(ctx); err != nil {
		return nil, err
	}
	target.Put(ctx, sessionKey, &model.Session{
		Tokens:     tokens,
		User:       user,
		Remember:   remember,
		VerifiedAt: s.now(),
	})

	s.log.Info("login", zap.Int("user_id", user.ID), zap.Stringer("role", user.Role), zap.Bool("remember", remember))
	return cloneUser(user), nil
}

// Logout clears both storages. Calling it without a session is fine.
func (s *Store) Logout(ctx context.Context) error {
	return errors.Join(s.durable.Destroy(ctx), s.ephemeral.Destroy(ctx))
}

// Where reports which storage holds the tokens, durable checked first.
func (s *Store) Where(ctx context.Context) Location {
	_, loc := s.stored(ctx)
	return loc
}

func (s *Store) stored(ctx context.Context) (*model.Session, Location) {
	if sess, ok := s.durable.Get(ctx, sessionKey).(*model.Session); ok && !sess.Tokens.Empty() {
		return sess, Durable
	}
	if sess, ok := s.ephemeral.Get(ctx, sessionKey).(*model.Session); ok && !sess.Tokens.Empty() {
		return sess, Ephemeral
	}
	return nil, Nowhere
}

func (s *Store) manager(loc Location) *scs.SessionManager {
	if loc == Durable {
		return s.durable
	}
	return s.ephemeral
}

// Resolve settles the session before next runs: a stored token pair whose
// profile is missing or stale is re-checked against the backend, and any
// failure ends in a full logout rather than an error.
func (s *Store) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		next.ServeHTTP(w, r.WithContext(withSession(ctx, s.resolve(ctx))))
	})
}

func (s *Store) resolve(ctx context.Context) *model.Session {
	sess, loc := s.stored(ctx)
	if sess == nil {
		return nil
	}

	now := s.now()
	if exp := sess.Tokens.RefreshExpiresAt; !exp.IsZero() && now.After(exp) {
		s.log.Info("stored session expired")
		s.logoutQuietly(ctx)
		return nil
	}

	if sess.User != nil && now.Sub(sess.VerifiedAt) < s.profileTTL {
		return clone(sess)
	}

	user, err := s.auth.FetchProfile(ctx, sess.Tokens.Access)
	if err != nil {
		s.log.Info("stored session rejected by backend", zap.Error(err))
		s.logoutQuietly(ctx)
		return nil
	}

	updated := *sess
	updated.User = user
	updated.VerifiedAt = now
	s.manager(loc).Put(ctx, sessionKey, &updated)
	return clone(&updated)
}

func (s *Store) logoutQuietly(ctx context.Context) {
	if err := s.Logout(ctx); err != nil {
		s.log.Warn("logout failed", zap.Error(err))
	}
}

func clone(sess *model.Session) *model.Session {
	c := *sess
	c.User = cloneUser(sess.User)
	return &c
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
