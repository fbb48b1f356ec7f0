package entities

import (
	"fmt"
	"time"

	"github.com/volatiletech/null/v8"
)

// RegistrationCategory is the business registration type declared at step 1.
// It determines the required document set for step 3.
type RegistrationCategory string

const (
	CategoryUnregistered     RegistrationCategory = "UNREGISTERED"
	CategoryRegisteredNonVAT RegistrationCategory = "REGISTERED_NON_VAT"
	CategoryRegisteredVAT    RegistrationCategory = "REGISTERED_VAT"
)

// Valid reports whether the category is one of the closed set.
func (c RegistrationCategory) Valid() bool {
	switch c {
	case CategoryUnregistered, CategoryRegisteredNonVAT, CategoryRegisteredVAT:
		return true
	}
	return false
}

// MerchantStatus represents the verification status of a merchant account
type MerchantStatus string

const (
	StatusPending   MerchantStatus = "PENDING"
	StatusApproved  MerchantStatus = "APPROVED"
	StatusRejected  MerchantStatus = "REJECTED"
	StatusSuspended MerchantStatus = "SUSPENDED"
)

// RegistrationSteps is the number of sequential registration phases.
const RegistrationSteps = 3

// PhonePattern is the canonical phone number format: "+CC DDD DDD DDDD".
const PhonePattern = `^\+\d{1,3} \d{3} \d{3} \d{4}$`

// Merchant represents a merchant account
type Merchant struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`

	// Lifecycle flags
	Active           bool `json:"isActive"`
	Verified         bool `json:"isVerified"`
	New              bool `json:"isNew"`
	RegistrationStep int  `json:"registrationStep"`

	// Step 1: general info
	BusinessName         string               `json:"businessName"`
	OwnerName            string               `json:"ownerName"`
	PhoneNumber          string               `json:"phoneNumber"`
	BusinessCategories   []string             `json:"businessCategories"`
	BusinessTypes        []string             `json:"businessTypes"`
	BusinessRegistration RegistrationCategory `json:"businessRegistration"`

	// Step 2: location
	ZipCode     string      `json:"zipCode"`
	Province    string      `json:"province"`
	City        string      `json:"city"`
	Barangay    string      `json:"barangay"`
	StreetName  string      `json:"streetName"`
	HouseNumber string      `json:"houseNumber"`
	Latitude    null.String `json:"latitude,omitempty"`
	Longitude   null.String `json:"longitude,omitempty"`

	// Step 3: document storage paths (not blob content)
	SelfieWithID      string   `json:"selfieWithId,omitempty"`
	ValidID           string   `json:"validId,omitempty"`
	BarangayPermit    string   `json:"barangayPermit,omitempty"`
	DTISECCertificate string   `json:"dtiSecCertificate,omitempty"`
	BIRCertificate    string   `json:"birCertificate,omitempty"`
	MayorsPermit      string   `json:"mayorsPermit,omitempty"`
	OtherDocuments    []string `json:"otherDocuments,omitempty"`

	// Verification & review
	Status            MerchantStatus `json:"status"`
	VerificationNotes null.String    `json:"verificationNotes,omitempty"`
	VerifiedAt        null.Time      `json:"verifiedAt,omitempty"`

	// Scratch data for the resumable step-by-step flow
	TempRegistrationData *ScratchData `json:"-"`

	// Business metrics, maintained by the order subsystem
	Rating      float64 `json:"rating"`
	TotalOrders int     `json:"totalOrders"`
	TotalSales  float64 `json:"totalSales"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	LastLogin null.Time `json:"lastLogin,omitempty"`
}

// FullAddress returns the formatted step-2 address
func (m *Merchant) FullAddress() string {
	return fmt.Sprintf("%s %s, %s, %s, %s %s",
		m.HouseNumber, m.StreetName, m.Barangay, m.City, m.Province, m.ZipCode)
}

// RegistrationComplete reports whether all three steps are done
func (m *Merchant) RegistrationComplete() bool {
	return m.RegistrationStep >= RegistrationSteps
}

// RequiredDocumentsUploaded reports whether every document required by the
// declared registration category has a stored path on the record.
func (m *Merchant) RequiredDocumentsUploaded() bool {
	paths := map[DocumentKey]string{
		DocumentSelfieWithID:      m.SelfieWithID,
		DocumentValidID:           m.ValidID,
		DocumentBarangayPermit:    m.BarangayPermit,
		DocumentDTISECCertificate: m.DTISECCertificate,
		DocumentBIRCertificate:    m.BIRCertificate,
		DocumentMayorsPermit:      m.MayorsPermit,
	}
	for _, key := range RequiredDocuments(m.BusinessRegistration) {
		if paths[key] == "" {
			return false
		}
	}
	return true
}

// ScratchData is the versioned union of per-step partial payloads stored on
// the record while a step-by-step registration is in flight.
type ScratchData struct {
	Step1 *Step1Input `json:"step_1,omitempty"`
	Step2 *Step2Input `json:"step_2,omitempty"`
}

// Step1Input carries general business and owner information
type Step1Input struct {
	BusinessName         string               `json:"business_name" binding:"required,max=255"`
	OwnerName            string               `json:"owner_name" binding:"required,max=255"`
	Username             string               `json:"username" binding:"required,max=150"`
	PhoneNumber          string               `json:"phone_number" binding:"required"`
	Email                string               `json:"email" binding:"required,email"`
	BusinessCategories   []string             `json:"business_categories"`
	BusinessTypes        []string             `json:"business_types"`
	BusinessRegistration RegistrationCategory `json:"business_registration" binding:"required"`
}

// Step2Input carries the business location. Coordinates arrive as strings
// from form submissions with variable precision.
type Step2Input struct {
	ZipCode     string `json:"zip_code" binding:"required,max=10"`
	Province    string `json:"province" binding:"required,max=100"`
	City        string `json:"city" binding:"required,max=100"`
	Barangay    string `json:"barangay" binding:"required,max=100"`
	StreetName  string `json:"street_name" binding:"required,max=255"`
	HouseNumber string `json:"house_number" binding:"required,max=50"`
	Latitude    string `json:"latitude"`
	Longitude   string `json:"longitude"`
}

// RegistrationProgress is the resumable-flow snapshot for a merchant
type RegistrationProgress struct {
	MerchantID           uint                 `json:"merchant_id"`
	CurrentStep          int                  `json:"current_step"`
	IsComplete           bool                 `json:"is_complete"`
	TempData             *ScratchData         `json:"temp_data"`
	BusinessRegistration RegistrationCategory `json:"business_registration"`
}

// RegisterResult is returned by registration completion. The generated
// credential is deliberately not part of this struct: it travels to the
// merchant by email only.
type RegisterResult struct {
	MerchantID   uint           `json:"merchant_id"`
	BusinessName string         `json:"business_name"`
	Status       MerchantStatus `json:"status"`
	EmailSent    bool           `json:"email_sent"`
}

// LoginInput is the credential pair for merchant login. Identifier is an
// email or a username.
type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// AuthResponse is returned on successful login
type AuthResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	Merchant     *Merchant `json:"merchant"`
}

// UniquenessInput asks whether a field value is already taken
type UniquenessInput struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value" binding:"required"`
}
