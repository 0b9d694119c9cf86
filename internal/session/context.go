package session

import (
	"context"

	"github.com/ghaggin/fypportal/internal/model"
)

type ctxKey struct{}

func withSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the settled session for this request, or nil when the
// visitor is not logged in. The value is a copy; changing it changes nothing.
func FromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(ctxKey{}).(*model.Session)
	if sess == nil {
		return nil
	}
	return clone(sess)
}

// UserFromContext is FromContext(ctx).User when authenticated, else nil.
func UserFromContext(ctx context.Context) *model.User {
	sess := FromContext(ctx)
	if !sess.Authenticated() {
		return nil
	}
	return sess.User
}

// Token is the access token to send with a backend call made now.
func Token(ctx context.Context) string {
	sess, _ := ctx.Value(ctxKey{}).(*model.Session)
	if sess == nil {
		return ""
	}
	return sess.Tokens.Access
}
