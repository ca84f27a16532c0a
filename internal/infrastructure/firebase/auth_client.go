package firebase

import (
	"context"
	"net/http"

	"firebase.google.com/go/v4/auth"
	pkgerrors "github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"souqbalady/internal/domain/entity"
	"souqbalady/pkg/errors"
)

type FirebaseAuthClient struct {
	client  *auth.Client
	toolkit *identitytoolkit.Service
}

// NewFirebaseAuthClient combines the Admin SDK client with the Identity
// Toolkit REST API, which handles password sign-in and reset emails.
func NewFirebaseAuthClient(ctx context.Context, client *auth.Client, apiKey string) (*FirebaseAuthClient, error) {
	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create identity toolkit service")
	}

	return &FirebaseAuthClient{
		client:  client,
		toolkit: toolkit,
	}, nil
}

func (f *FirebaseAuthClient) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", errors.Conflict("Email already in use")
		}
		return "", errors.BadRequest("Failed to create account", err)
	}

	return user.UID, nil
}

func (f *FirebaseAuthClient) DeleteUser(ctx context.Context, uid string) error {
	return f.client.DeleteUser(ctx, uid)
}

// VerifyToken returns the uid of a valid, unrevoked ID token.
func (f *FirebaseAuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDTokenAndCheckRevoked(ctx, token)
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}

	return result.UID, nil
}

func (f *FirebaseAuthClient) RevokeRefreshTokens(ctx context.Context, uid string) error {
	if err := f.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return errors.StoreUnavailable("Failed to revoke session", err)
	}
	return nil
}

func (f *FirebaseAuthClient) SignInWithEmailPassword(ctx context.Context, email, password string) (*entity.AuthTokens, error) {
	resp, err := f.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		if isClientError(err) {
			return nil, errors.Unauthorized("Invalid email or password", err)
		}
		return nil, errors.StoreUnavailable("Authentication service unavailable", err)
	}

	return &entity.AuthTokens{
		UID:          resp.LocalId,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}

func (f *FirebaseAuthClient) SendPasswordResetEmail(ctx context.Context, email string) error {
	_, err := f.toolkit.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}).Context(ctx).Do()
	if err != nil {
		if isClientError(err) {
			return errors.BadRequest("Unable to send password reset email", err)
		}
		return errors.StoreUnavailable("Authentication service unavailable", err)
	}
	return nil
}

func isClientError(err error) bool {
	var apiErr *googleapi.Error
	if pkgerrors.As(err, &apiErr) {
		return apiErr.Code >= http.StatusBadRequest && apiErr.Code < http.StatusInternalServerError
	}
	return false
}
