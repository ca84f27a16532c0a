package usecase

import (
	"context"
	"strings"
	"time"

	"souqbalady/internal/domain/entity"
	"souqbalady/internal/domain/repository"
	"souqbalady/pkg/errors"
	"souqbalady/pkg/logger"
)

type AuthUseCase struct {
	profileRepo  repository.ProfileRepository
	firebaseAuth FirebaseAuthClient
	now          func() time.Time
}

func NewAuthUseCase(profileRepo repository.ProfileRepository, firebaseAuth FirebaseAuthClient) *AuthUseCase {
	return &AuthUseCase{
		profileRepo:  profileRepo,
		firebaseAuth: firebaseAuth,
		now:          time.Now,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Role     entity.Role
	Profile  ProfileInput
}

type LoginResult struct {
	Tokens  *entity.AuthTokens `json:"tokens"`
	Profile *entity.Profile    `json:"profile"`
}

// Register creates the Firebase account and its profile document. The
// account is removed again if the profile cannot be written. No session is
// issued; the user signs in separately.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*entity.Profile, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || input.Password == "" {
		return nil, errors.Validation("Email and password are required")
	}
	if len(input.Password) < 6 {
		return nil, errors.Validation("Password must be at least 6 characters")
	}
	if !input.Role.Valid() {
		return nil, errors.Validation("user_type must be one of: farmer trader factory")
	}

	now := uc.now().UTC()
	profile := &entity.Profile{
		Email:     email,
		UserType:  input.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.Profile.applyTo(profile)
	profile.ProfileCompleted = len(profile.MissingFields()) == 0

	uid, err := uc.firebaseAuth.CreateUser(ctx, email, input.Password, profile.DisplayName())
	if err != nil {
		return nil, err
	}
	profile.UID = uid

	if err := uc.profileRepo.Create(ctx, profile); err != nil {
		if delErr := uc.firebaseAuth.DeleteUser(ctx, uid); delErr != nil {
			logger.Error("Failed to remove auth user %s after profile write failure: %v", uid, delErr)
		}
		return nil, err
	}

	logger.Info("Registered %s %s", profile.UserType, uid)
	return profile, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, errors.Validation("Email and password are required")
	}

	tokens, err := uc.firebaseAuth.SignInWithEmailPassword(ctx, strings.TrimSpace(strings.ToLower(email)), password)
	if err != nil {
		return nil, err
	}

	profile, err := uc.profileRepo.GetByID(ctx, tokens.UID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Tokens:  tokens,
		Profile: profile,
	}, nil
}

// Logout revokes every refresh token of the caller. ID tokens already issued
// are rejected by ResolveSession from then on.
func (uc *AuthUseCase) Logout(ctx context.Context, session *entity.Session) error {
	return uc.firebaseAuth.RevokeRefreshTokens(ctx, session.UID)
}

func (uc *AuthUseCase) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return errors.Validation("Email is required")
	}
	return uc.firebaseAuth.SendPasswordResetEmail(ctx, email)
}

// ResolveSession verifies an ID token and loads the caller's profile.
func (uc *AuthUseCase) ResolveSession(ctx context.Context, token string) (*entity.Session, error) {
	if token == "" {
		return nil, errors.Unauthorized("Authentication required", nil)
	}

	uid, err := uc.firebaseAuth.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}

	profile, err := uc.profileRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return nil, errors.Unauthorized("No profile exists for this account", err)
		}
		return nil, err
	}

	return &entity.Session{
		UID:     uid,
		Token:   token,
		Profile: profile,
	}, nil
}
