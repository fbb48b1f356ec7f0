package models

import (
	"time"

	"github.com/lib/pq"
)

// Merchant is the GORM model backing the merchants table. Unique indexes on
// username, email and phone_number are the storage-level authority for
// uniqueness; application-level checks only produce friendlier errors.
// Username and email indexes are functional on lower() so a commit-time race
// cannot admit a case-variant duplicate.
type Merchant struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"type:varchar(150);not null;uniqueIndex:uniq_merchants_username,expression:lower(username)"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex:uniq_merchants_email,expression:lower(email)"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(128)"`

	IsActive         bool `gorm:"not null;default:false"`
	IsVerified       bool `gorm:"not null;default:false"`
	IsNew            bool `gorm:"not null;default:true"`
	RegistrationStep int  `gorm:"not null;default:0"`

	BusinessName         string         `gorm:"type:varchar(255);index"`
	OwnerName            string         `gorm:"type:varchar(255)"`
	PhoneNumber          string         `gorm:"type:varchar(20);uniqueIndex:uniq_merchants_phone_number;not null"`
	BusinessCategories   pq.StringArray `gorm:"type:text[]"`
	BusinessTypes        pq.StringArray `gorm:"type:text[]"`
	BusinessRegistration string         `gorm:"type:varchar(20);not null;default:'UNREGISTERED'"`

	ZipCode     string  `gorm:"type:varchar(10)"`
	Province    string  `gorm:"type:varchar(100)"`
	City        string  `gorm:"type:varchar(100)"`
	Barangay    string  `gorm:"type:varchar(100)"`
	StreetName  string  `gorm:"type:varchar(255)"`
	HouseNumber string  `gorm:"type:varchar(50)"`
	Latitude    *string `gorm:"type:varchar(12)"`
	Longitude   *string `gorm:"type:varchar(12)"`

	SelfieWithID      string `gorm:"column:selfie_with_id;type:varchar(255)"`
	ValidID           string `gorm:"column:valid_id;type:varchar(255)"`
	BarangayPermit    string `gorm:"type:varchar(255)"`
	DTISECCertificate string `gorm:"column:dti_sec_certificate;type:varchar(255)"`
	BIRCertificate    string `gorm:"column:bir_certificate;type:varchar(255)"`
	MayorsPermit      string `gorm:"type:varchar(255)"`
	OtherDocuments    string `gorm:"type:jsonb;default:'[]'"`

	Status            string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	VerificationNotes *string    `gorm:"type:text"`
	VerifiedAt        *time.Time `gorm:"type:timestamp"`

	TempRegistrationData string `gorm:"type:jsonb;default:'{}'"`

	Rating      float64 `gorm:"type:decimal(3,2);default:0"`
	TotalOrders int     `gorm:"default:0"`
	TotalSales  float64 `gorm:"type:decimal(12,2);default:0"`

	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
	LastLogin *time.Time `gorm:"type:timestamp"`
}

// TableName overrides the table name
func (Merchant) TableName() string {
	return "merchants"
}
