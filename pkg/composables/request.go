package composables

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/msu-projects/sitio-portal/pkg/constants"
)

var (
	ErrNoUser = errors.New("no user found in context")
)

// User identifies the acting account. Authentication itself is handled by an
// external gateway; middleware only lifts the already-verified identity into
// the context.
type User struct {
	ID   uuid.UUID
	Name string
	Role string
}

const (
	RoleContributor = "contributor"
	RoleReviewer    = "reviewer"
)

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, constants.UserKey, u)
}

func UseUser(ctx context.Context) (User, error) {
	u, ok := ctx.Value(constants.UserKey).(User)
	if !ok || u.ID == uuid.Nil {
		return User{}, ErrNoUser
	}
	return u, nil
}

type Params struct {
	IP        string
	UserAgent string
	Request   *http.Request
	Writer    http.ResponseWriter
}

func WithParams(ctx context.Context, params *Params) context.Context {
	return context.WithValue(ctx, constants.ParamsKey, params)
}

// UseParams returns the request parameters from the context.
// If the parameters are not found, the second return value will be false.
func UseParams(ctx context.Context) (*Params, bool) {
	params, ok := ctx.Value(constants.ParamsKey).(*Params)
	return params, ok
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the request-scoped logger, falling back to the standard
// logger when the middleware did not run (e.g. in tests).
func UseLogger(ctx context.Context) *logrus.Entry {
	logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry)
	if !ok {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logger
}
