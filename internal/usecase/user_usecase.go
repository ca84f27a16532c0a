package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"

	"souqbalady/internal/domain/entity"
	"souqbalady/internal/domain/repository"
	"souqbalady/internal/domain/service"
	"souqbalady/pkg/errors"
	"souqbalady/pkg/logger"
)

const maxDocumentSize = 5 << 20

var allowedDocumentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// ProfileInput holds editable profile fields. Empty values are left unchanged.
type ProfileInput struct {
	Phone       string
	Country     string
	Governorate string
	Region      string

	Name       string
	NationalID string
	Address    string

	ShopName    string
	ShopAddress string
	TaxNumber   string

	CompanyName    string
	CompanyAddress string
}

// fields returns the Firestore fields set in the input that a user of role may edit.
func (in ProfileInput) fields(role entity.Role) map[string]interface{} {
	out := map[string]interface{}{}
	set := func(key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			out[key] = v
		}
	}

	set("phone", in.Phone)
	set("country", in.Country)
	set("governorate", in.Governorate)
	set("region", in.Region)

	switch role {
	case entity.RoleFarmer:
		set("name", in.Name)
		set("nationalId", in.NationalID)
		set("address", in.Address)
	case entity.RoleTrader:
		set("shopName", in.ShopName)
		set("shopAddress", in.ShopAddress)
		set("taxNumber", in.TaxNumber)
	case entity.RoleFactory:
		set("companyName", in.CompanyName)
		set("companyAddress", in.CompanyAddress)
		set("taxNumber", in.TaxNumber)
	}
	return out
}

func (in ProfileInput) applyTo(p *entity.Profile) {
	for key, value := range in.fields(p.UserType) {
		setProfileField(p, key, value.(string))
	}
}

func setProfileField(p *entity.Profile, key, value string) {
	switch key {
	case "phone":
		p.Phone = value
	case "country":
		p.Country = value
	case "governorate":
		p.Governorate = value
	case "region":
		p.Region = value
	case "name":
		p.Name = value
	case "nationalId":
		p.NationalID = value
	case "address":
		p.Address = value
	case "shopName":
		p.ShopName = value
	case "shopAddress":
		p.ShopAddress = value
	case "taxNumber":
		p.TaxNumber = value
	case "companyName":
		p.CompanyName = value
	case "companyAddress":
		p.CompanyAddress = value
	}
}

type ProfileUseCase struct {
	profileRepo repository.ProfileRepository
	files       service.FileUploadService
}

func NewProfileUseCase(profileRepo repository.ProfileRepository, files service.FileUploadService) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: profileRepo,
		files:       files,
	}
}

func (uc *ProfileUseCase) GetProfile(ctx context.Context, session *entity.Session) (*entity.Profile, error) {
	return uc.profileRepo.GetByID(ctx, session.UID)
}

// PublicProfile is what other users may see of a profile.
type PublicProfile struct {
	UID         string      `json:"uid"`
	UserType    entity.Role `json:"user_type"`
	DisplayName string      `json:"display_name"`
	Country     string      `json:"country,omitempty"`
	Governorate string      `json:"governorate,omitempty"`
	Region      string      `json:"region,omitempty"`
}

func (uc *ProfileUseCase) GetPublicProfile(ctx context.Context, uid string) (*PublicProfile, error) {
	profile, err := uc.profileRepo.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	return &PublicProfile{
		UID:         profile.UID,
		UserType:    profile.UserType,
		DisplayName: profile.DisplayName(),
		Country:     profile.Country,
		Governorate: profile.Governorate,
		Region:      profile.Region,
	}, nil
}

// UpdateProfile merges the non-empty fields of input into the caller's
// profile. The role itself cannot change.
func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, session *entity.Session, input ProfileInput) (*entity.Profile, error) {
	current, err := uc.profileRepo.GetByID(ctx, session.UID)
	if err != nil {
		return nil, err
	}

	fields := input.fields(current.UserType)
	if len(fields) == 0 {
		return nil, errors.Validation("No profile fields to update")
	}

	input.applyTo(current)
	fields["profileCompleted"] = len(current.MissingFields()) == 0

	if err := uc.profileRepo.Merge(ctx, session.UID, fields); err != nil {
		return nil, err
	}

	return uc.profileRepo.GetByID(ctx, session.UID)
}

// UploadDocument stores an identity or registration document and records
// its URL on the profile.
func (uc *ProfileUseCase) UploadDocument(ctx context.Context, session *entity.Session, docType entity.DocumentType, contentType string, size int64, file io.Reader) (*entity.Profile, error) {
	if docType.ProfileField() == "" {
		return nil, errors.Validation("Unknown document type")
	}
	if !docType.AllowedFor(session.Role()) {
		return nil, errors.Forbidden(fmt.Sprintf("A %s account cannot upload %s", session.Role(), docType), nil)
	}
	if !allowedDocumentTypes[contentType] {
		return nil, errors.Validation("Document must be a JPEG, PNG, WebP or PDF file")
	}
	if size > maxDocumentSize {
		return nil, errors.Validation("Document must be at most 5 MB")
	}

	current, err := uc.profileRepo.GetByID(ctx, session.UID)
	if err != nil {
		return nil, err
	}
	previous := current.DocumentURL(docType)

	url, err := uc.files.UploadFile(ctx, file, contentType, fmt.Sprintf("profiles/%s/%s", session.UID, docType))
	if err != nil {
		return nil, errors.StoreUnavailable("Failed to upload document", err)
	}

	if err := uc.profileRepo.Merge(ctx, session.UID, map[string]interface{}{docType.ProfileField(): url}); err != nil {
		uc.deleteFile(ctx, url)
		return nil, err
	}
	if previous != "" && previous != url {
		uc.deleteFile(ctx, previous)
	}

	return uc.profileRepo.GetByID(ctx, session.UID)
}

func (uc *ProfileUseCase) deleteFile(ctx context.Context, url string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := uc.files.DeleteFile(ctx, url); err != nil {
		logger.Warn("Failed to delete stored document %s: %v", url, err)
	}
}
