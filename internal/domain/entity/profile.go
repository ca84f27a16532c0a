package entity

import "time"

type Profile struct {
	UID              string    `json:"uid" firestore:"uid"`
	Email            string    `json:"email" firestore:"email"`
	UserType         Role      `json:"user_type" firestore:"userType"`
	Phone            string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	Country          string    `json:"country,omitempty" firestore:"country,omitempty"`
	Governorate      string    `json:"governorate,omitempty" firestore:"governorate,omitempty"`
	Region           string    `json:"region,omitempty" firestore:"region,omitempty"`
	ProfileCompleted bool      `json:"profile_completed" firestore:"profileCompleted"`
	CreatedAt        time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt        time.Time `json:"updated_at" firestore:"updatedAt"`

	// farmer
	Name                 string `json:"name,omitempty" firestore:"name,omitempty"`
	NationalID           string `json:"national_id,omitempty" firestore:"nationalId,omitempty"`
	Address              string `json:"address,omitempty" firestore:"address,omitempty"`
	NationalIDFrontImage string `json:"national_id_front_image,omitempty" firestore:"nationalIdFrontImage,omitempty"`
	NationalIDBackImage  string `json:"national_id_back_image,omitempty" firestore:"nationalIdBackImage,omitempty"`

	// trader
	ShopName    string `json:"shop_name,omitempty" firestore:"shopName,omitempty"`
	ShopAddress string `json:"shop_address,omitempty" firestore:"shopAddress,omitempty"`

	// trader and factory
	TaxNumber string `json:"tax_number,omitempty" firestore:"taxNumber,omitempty"`

	// factory
	CompanyName             string `json:"company_name,omitempty" firestore:"companyName,omitempty"`
	CompanyAddress          string `json:"company_address,omitempty" firestore:"companyAddress,omitempty"`
	CommercialRegisterImage string `json:"commercial_register_image,omitempty" firestore:"commercialRegisterImage,omitempty"`
}

// DisplayName is the role-specific name, or the email when none is set.
func (p *Profile) DisplayName() string {
	var name string
	switch p.UserType {
	case RoleFarmer:
		name = p.Name
	case RoleTrader:
		name = p.ShopName
	case RoleFactory:
		name = p.CompanyName
	}
	if name == "" {
		return p.Email
	}
	return name
}

// MissingFields lists the role-specific fields that are still empty,
// by their Firestore names.
func (p *Profile) MissingFields() []string {
	type field struct {
		name  string
		value string
	}
	var fields []field
	switch p.UserType {
	case RoleFarmer:
		fields = []field{{"name", p.Name}, {"nationalId", p.NationalID}, {"address", p.Address}}
	case RoleTrader:
		fields = []field{{"shopName", p.ShopName}, {"shopAddress", p.ShopAddress}, {"taxNumber", p.TaxNumber}}
	case RoleFactory:
		fields = []field{{"companyName", p.CompanyName}, {"companyAddress", p.CompanyAddress}, {"taxNumber", p.TaxNumber}}
	}

	var missing []string
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

type DocumentType string

const (
	DocumentNationalIDFront    DocumentType = "national-id-front"
	DocumentNationalIDBack     DocumentType = "national-id-back"
	DocumentCommercialRegister DocumentType = "commercial-register"
)

// ProfileField is the Firestore field that stores the document URL.
func (d DocumentType) ProfileField() string {
	switch d {
	case DocumentNationalIDFront:
		return "nationalIdFrontImage"
	case DocumentNationalIDBack:
		return "nationalIdBackImage"
	case DocumentCommercialRegister:
		return "commercialRegisterImage"
	}
	return ""
}

// DocumentURL returns the stored URL of the document, if any.
func (p *Profile) DocumentURL(d DocumentType) string {
	switch d {
	case DocumentNationalIDFront:
		return p.NationalIDFrontImage
	case DocumentNationalIDBack:
		return p.NationalIDBackImage
	case DocumentCommercialRegister:
		return p.CommercialRegisterImage
	}
	return ""
}

// AllowedFor reports whether a user of role may upload this document.
func (d DocumentType) AllowedFor(role Role) bool {
	switch d {
	case DocumentNationalIDFront, DocumentNationalIDBack:
		return role == RoleFarmer
	case DocumentCommercialRegister:
		return role == RoleFactory
	}
	return false
}
