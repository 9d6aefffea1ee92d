package handler

import (
	"context"

	"github.com/safepath/safepath/internal/api/middleware"
)

// GetUserID returns the authenticated user ID, or "" on public routes.
func GetUserID(ctx context.Context) string {
	return middleware.GetUserID(ctx)
}
