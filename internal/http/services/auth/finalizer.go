package auth

import (
	"context"
	"fmt"

	"github.com/compasshq/websignin/internal/observability/logger"
	"github.com/compasshq/websignin/internal/session"
	"github.com/compasshq/websignin/internal/store/core"
)

// finalizer turns a verified identity into an authenticated session.
// The user record is upserted keyed by profile URL, then the session is
// replaced wholesale so nothing from the attempt survives.
type finalizer struct {
	sessions *session.Manager
	users    core.Repository
}

func (f *finalizer) finalize(ctx context.Context, sessionID, me string) (*CallbackResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("auth.finalizer"))

	user, err := f.users.UpsertUserByURL(ctx, me)
	if err != nil {
		log.Error("user upsert failed", logger.Me(me), logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrFinalizeFailed, err)
	}

	if err := f.sessions.Save(ctx, sessionID, &session.State{
		Me:     user.URL,
		UserID: user.ID,
	}); err != nil {
		log.Error("session save failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrFinalizeFailed, err)
	}

	log.Info("login completed", logger.Me(user.URL), logger.UserID(user.ID))
	return &CallbackResult{Me: user.URL, UserID: user.ID}, nil
}

// abandon clears the in-flight attempt after a terminal callback
// failure. State tokens are single use.
func (f *finalizer) abandon(ctx context.Context, sessionID string, st *session.State) {
	st.Attempt = nil
	if err := f.sessions.Save(ctx, sessionID, st); err != nil {
		logger.From(ctx).Warn("could not clear attempt", logger.Err(err))
	}
}
