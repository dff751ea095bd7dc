package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey string

const ctxKeyUserID contextKey = "user_id"

// ContextWithUserID adds the signed-in user's id to the context.
func ContextWithUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, id)
}

// UserIDFromContext extracts the user id set by ContextWithUserID.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ctxKeyUserID).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// ContextIdentity resolves the current user from the request context.
type ContextIdentity struct{}

// CurrentUserID implements Identity.
func (ContextIdentity) CurrentUserID(ctx context.Context) (uuid.UUID, error) {
	id, ok := UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrNoActor
	}
	return id, nil
}

// StaticIdentity always resolves to the same user, e.g. the CLI's --owner.
type StaticIdentity uuid.UUID

// CurrentUserID implements Identity.
func (s StaticIdentity) CurrentUserID(context.Context) (uuid.UUID, error) {
	id := uuid.UUID(s)
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("static identity: %w", ErrNoActor)
	}
	return id, nil
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

// NotifySuccess implements Notifier.
func (n LogNotifier) NotifySuccess(ctx context.Context, text string) {
	n.logger().InfoContext(ctx, "notify", "level", "success", "text", text)
}

// NotifyError implements Notifier.
func (n LogNotifier) NotifyError(ctx context.Context, text string) {
	n.logger().WarnContext(ctx, "notify", "level", "error", "text", text)
}

// MultiNotifier fans every notification out to all of its notifiers.
type MultiNotifier []Notifier

// NotifySuccess implements Notifier.
func (m MultiNotifier) NotifySuccess(ctx context.Context, text string) {
	for _, n := range m {
		n.NotifySuccess(ctx, text)
	}
}

// NotifyError implements Notifier.
func (m MultiNotifier) NotifyError(ctx context.Context, text string) {
	for _, n := range m {
		n.NotifyError(ctx, text)
	}
}
