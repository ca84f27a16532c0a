package usecase

import (
	"context"
	"time"

	"souqbalady/internal/domain/entity"
)

type FirebaseAuthClient interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	DeleteUser(ctx context.Context, uid string) error
	VerifyToken(ctx context.Context, token string) (string, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
	SignInWithEmailPassword(ctx context.Context, email, password string) (*entity.AuthTokens, error)
	SendPasswordResetEmail(ctx context.Context, email string) error
}

// RateLimiter throttles per-user actions.
type RateLimiter interface {
	Allow(key, action string) (bool, time.Duration)
}
