package usecase

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"souqbalady/internal/domain/entity"
	"souqbalady/pkg/errors"
)

func TestUpdateProfile(t *testing.T) {
	profiles := newMemProfileRepo(&entity.Profile{UID: "t1", Email: "t1@example.com", UserType: entity.RoleTrader})
	uc := NewProfileUseCase(profiles, &memFiles{})
	ctx := context.Background()

	updated, err := uc.UpdateProfile(ctx, traderSession("t1"), ProfileInput{ShopName: "Nile Produce", Name: "not a trader field"})
	require.NoError(t, err)
	assert.Equal(t, "Nile Produce", updated.ShopName)
	assert.Empty(t, updated.Name)
	assert.False(t, updated.ProfileCompleted)

	updated, err = uc.UpdateProfile(ctx, traderSession("t1"), ProfileInput{ShopAddress: "Obour market", TaxNumber: "123-456"})
	require.NoError(t, err)
	assert.True(t, updated.ProfileCompleted)
	assert.Equal(t, "Nile Produce", updated.ShopName)

	_, err = uc.UpdateProfile(ctx, traderSession("t1"), ProfileInput{CompanyName: "only factories"})
	assert.True(t, errors.Is(err, errors.CodeValidation))
}

func TestGetPublicProfile(t *testing.T) {
	profiles := newMemProfileRepo(&entity.Profile{
		UID:        "f1",
		Email:      "f1@example.com",
		UserType:   entity.RoleFarmer,
		Name:       "Ahmed",
		NationalID: "secret",
		Region:     "Minya",
	})
	uc := NewProfileUseCase(profiles, &memFiles{})

	public, err := uc.GetPublicProfile(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "Ahmed", public.DisplayName)
	assert.Equal(t, "Minya", public.Region)

	_, err = uc.GetPublicProfile(context.Background(), "nobody")
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestUploadDocument(t *testing.T) {
	profiles := newMemProfileRepo(
		&entity.Profile{UID: "f1", UserType: entity.RoleFarmer},
		&entity.Profile{UID: "x1", UserType: entity.RoleFactory},
	)
	files := &memFiles{}
	uc := NewProfileUseCase(profiles, files)
	ctx := context.Background()
	body := []byte("%PDF-1.4")

	profile, err := uc.UploadDocument(ctx, farmerSession("f1"), entity.DocumentNationalIDFront, "image/jpeg", int64(len(body)), bytes.NewReader(body))
	require.NoError(t, err)
	assert.Contains(t, profile.NationalIDFrontImage, "profiles/f1/national-id-front")

	profile, err = uc.UploadDocument(ctx, factorySession("x1"), entity.DocumentCommercialRegister, "application/pdf", int64(len(body)), bytes.NewReader(body))
	require.NoError(t, err)
	assert.NotEmpty(t, profile.CommercialRegisterImage)

	_, err = uc.UploadDocument(ctx, farmerSession("f1"), entity.DocumentCommercialRegister, "application/pdf", 1, bytes.NewReader(body))
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = uc.UploadDocument(ctx, farmerSession("f1"), "selfie", "image/png", 1, bytes.NewReader(body))
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = uc.UploadDocument(ctx, farmerSession("f1"), entity.DocumentNationalIDBack, "text/plain", 1, bytes.NewReader(body))
	assert.True(t, errors.Is(err, errors.CodeValidation))

	_, err = uc.UploadDocument(ctx, farmerSession("f1"), entity.DocumentNationalIDBack, "image/png", maxDocumentSize+1, bytes.NewReader(body))
	assert.True(t, errors.Is(err, errors.CodeValidation))

	files.err = assert.AnError
	_, err = uc.UploadDocument(ctx, farmerSession("f1"), entity.DocumentNationalIDBack, "image/png", 1, bytes.NewReader(body))
	assert.True(t, errors.Is(err, errors.CodeStoreUnavailable))

	assert.Len(t, files.uploaded, 2)
}

func TestUploadDocumentCleansUpStoredFiles(t *testing.T) {
	profiles := newMemProfileRepo(&entity.Profile{UID: "f1", UserType: entity.RoleFarmer})
	files := &memFiles{}
	uc := NewProfileUseCase(profiles, files)
	ctx := context.Background()
	body := []byte("jpeg")

	first, err := uc.UploadDocument(ctx, farmerSession("f1"), entity.DocumentNationalIDFront, "image/jpeg", int64(len(body)), bytes.NewReader(body))
	require.NoError(t, err)
	assert.Empty(t, files.deleted)

	second, err := uc.UploadDocument(ctx, farmerSession("f1"), entity.DocumentNationalIDFront, "image/jpeg", int64(len(body)), bytes.NewReader(body))
	require.NoError(t, err)
	assert.NotEqual(t, first.NationalIDFrontImage, second.NationalIDFrontImage)
	assert.Equal(t, []string{first.NationalIDFrontImage}, files.deleted, "replaced document is removed")

	files.deleteErr = assert.AnError
	third, err := uc.UploadDocument(ctx, farmerSession("f1"), entity.DocumentNationalIDFront, "image/jpeg", int64(len(body)), bytes.NewReader(body))
	require.NoError(t, err, "a failed cleanup does not fail the upload")
	files.deleteErr = nil

	profiles.failWrite = errors.StoreUnavailable("Failed to update profile", assert.AnError)
	_, err = uc.UploadDocument(ctx, farmerSession("f1"), entity.DocumentNationalIDFront, "image/jpeg", int64(len(body)), bytes.NewReader(body))
	assert.True(t, errors.Is(err, errors.CodeStoreUnavailable))

	require.Len(t, files.uploaded, 4)
	orphan := files.uploaded[3]
	assert.Equal(t, []string{first.NationalIDFrontImage, second.NationalIDFrontImage, orphan}, files.deleted)

	profiles.failWrite = nil
	current, err := uc.GetProfile(ctx, farmerSession("f1"))
	require.NoError(t, err)
	assert.Equal(t, third.NationalIDFrontImage, current.NationalIDFrontImage)
}
