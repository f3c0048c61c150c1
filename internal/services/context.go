package services

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const profileIDKey ctxKey = "profile_id"

func WithProfileContext(ctx context.Context, profileID uuid.UUID) context.Context {
	return context.WithValue(ctx, profileIDKey, profileID)
}

func ProfileIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(profileIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	profileID, ok := value.(uuid.UUID)
	return profileID, ok
}
