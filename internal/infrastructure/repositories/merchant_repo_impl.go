package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"rapex.backend/internal/domain/entities"
	domainerrors "rapex.backend/internal/domain/errors"
	domainRepos "rapex.backend/internal/domain/repositories"
	"rapex.backend/internal/infrastructure/models"
)

// MerchantRepository implements merchant data operations on GORM
type MerchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository creates a new merchant repository
func NewMerchantRepository(db *gorm.DB) *MerchantRepository {
	return &MerchantRepository{db: db}
}

// Create persists a new merchant and assigns its ID
func (r *MerchantRepository) Create(ctx context.Context, merchant *entities.Merchant) error {
	m, err := toModel(merchant)
	if err != nil {
		return err
	}

	if err := GetDB(ctx, r.db).WithContext(ctx).Create(m).Error; err != nil {
		return translateDuplicate(err)
	}

	merchant.ID = m.ID
	merchant.CreatedAt = m.CreatedAt
	merchant.UpdatedAt = m.UpdatedAt
	return nil
}

// GetByID gets a merchant by ID
func (r *MerchantRepository) GetByID(ctx context.Context, id uint) (*entities.Merchant, error) {
	var m models.Merchant
	if err := GetDB(ctx, r.db).WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toEntity(&m)
}

// GetByEmail gets a merchant by email, case-insensitively
func (r *MerchantRepository) GetByEmail(ctx context.Context, email string) (*entities.Merchant, error) {
	var m models.Merchant
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toEntity(&m)
}

// GetByUsername gets a merchant by username, case-insensitively
func (r *MerchantRepository) GetByUsername(ctx context.Context, username string) (*entities.Merchant, error) {
	var m models.Merchant
	if err := GetDB(ctx, r.db).WithContext(ctx).
		Where("LOWER(username) = LOWER(?)", username).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toEntity(&m)
}

// Exists reports whether any merchant already holds the value for the field
func (r *MerchantRepository) Exists(ctx context.Context, field, value string) (bool, error) {
	query := GetDB(ctx, r.db).WithContext(ctx).Model(&models.Merchant{})

	switch field {
	case domainRepos.FieldUsername:
		query = query.Where("LOWER(username) = LOWER(?)", value)
	case domainRepos.FieldEmail:
		query = query.Where("LOWER(email) = LOWER(?)", value)
	case domainRepos.FieldPhoneNumber:
		query = query.Where("phone_number = ?", value)
	default:
		return false, domainerrors.BadRequest("unsupported uniqueness field: " + field)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update persists every mutable field of the merchant
func (r *MerchantRepository) Update(ctx context.Context, merchant *entities.Merchant) error {
	m, err := toModel(merchant)
	if err != nil {
		return err
	}
	m.ID = merchant.ID

	result := GetDB(ctx, r.db).WithContext(ctx).
		Model(&models.Merchant{}).
		Where("id = ?", merchant.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(m)
	if result.Error != nil {
		return translateDuplicate(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// UpdatePassword overwrites the stored password hash
func (r *MerchantRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	result := GetDB(ctx, r.db).WithContext(ctx).
		Model(&models.Merchant{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// UpdateStatus updates the verification status. Approval marks the record
// verified and stamps verified_at.
func (r *MerchantRepository) UpdateStatus(ctx context.Context, id uint, status entities.MerchantStatus) error {
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now(),
	}
	if status == entities.StatusApproved {
		updates["is_verified"] = true
		updates["verified_at"] = time.Now()
	}

	result := GetDB(ctx, r.db).WithContext(ctx).
		Model(&models.Merchant{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// ListStaleIncomplete returns inactive merchants stuck below the final step
// that were last touched before the cutoff
func (r *MerchantRepository) ListStaleIncomplete(ctx context.Context, cutoff time.Time, limit int) ([]*entities.Merchant, error) {
	var rows []models.Merchant
	query := GetDB(ctx, r.db).WithContext(ctx).
		Where("is_active = ? AND registration_step < ? AND updated_at < ?",
			false, entities.RegistrationSteps, cutoff).
		Order("updated_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	merchants := make([]*entities.Merchant, 0, len(rows))
	for i := range rows {
		e, err := toEntity(&rows[i])
		if err != nil {
			return nil, err
		}
		merchants = append(merchants, e)
	}
	return merchants, nil
}

// Delete removes a merchant row
func (r *MerchantRepository) Delete(ctx context.Context, id uint) error {
	result := GetDB(ctx, r.db).WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Merchant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toModel(e *entities.Merchant) (*models.Merchant, error) {
	otherDocs, err := json.Marshal(e.OtherDocuments)
	if err != nil {
		return nil, err
	}
	if e.OtherDocuments == nil {
		otherDocs = []byte("[]")
	}

	scratch := []byte("{}")
	if e.TempRegistrationData != nil {
		scratch, err = json.Marshal(e.TempRegistrationData)
		if err != nil {
			return nil, err
		}
	}

	m := &models.Merchant{
		ID:                   e.ID,
		Username:             e.Username,
		Email:                e.Email,
		PasswordHash:         e.PasswordHash,
		IsActive:             e.Active,
		IsVerified:           e.Verified,
		IsNew:                e.New,
		RegistrationStep:     e.RegistrationStep,
		BusinessName:         e.BusinessName,
		OwnerName:            e.OwnerName,
		PhoneNumber:          e.PhoneNumber,
		BusinessCategories:   pq.StringArray(e.BusinessCategories),
		BusinessTypes:        pq.StringArray(e.BusinessTypes),
		BusinessRegistration: string(e.BusinessRegistration),
		ZipCode:              e.ZipCode,
		Province:             e.Province,
		City:                 e.City,
		Barangay:             e.Barangay,
		StreetName:           e.StreetName,
		HouseNumber:          e.HouseNumber,
		SelfieWithID:         e.SelfieWithID,
		ValidID:              e.ValidID,
		BarangayPermit:       e.BarangayPermit,
		DTISECCertificate:    e.DTISECCertificate,
		BIRCertificate:       e.BIRCertificate,
		MayorsPermit:         e.MayorsPermit,
		OtherDocuments:       string(otherDocs),
		Status:               string(e.Status),
		TempRegistrationData: string(scratch),
		Rating:               e.Rating,
		TotalOrders:          e.TotalOrders,
		TotalSales:           e.TotalSales,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}

	if e.Latitude.Valid {
		lat := e.Latitude.String
		m.Latitude = &lat
	}
	if e.Longitude.Valid {
		lng := e.Longitude.String
		m.Longitude = &lng
	}
	if e.VerificationNotes.Valid {
		notes := e.VerificationNotes.String
		m.VerificationNotes = &notes
	}
	if e.VerifiedAt.Valid {
		at := e.VerifiedAt.Time
		m.VerifiedAt = &at
	}
	if e.LastLogin.Valid {
		at := e.LastLogin.Time
		m.LastLogin = &at
	}

	return m, nil
}

func toEntity(m *models.Merchant) (*entities.Merchant, error) {
	var otherDocs []string
	if m.OtherDocuments != "" {
		if err := json.Unmarshal([]byte(m.OtherDocuments), &otherDocs); err != nil {
			return nil, err
		}
	}

	var scratch *entities.ScratchData
	if m.TempRegistrationData != "" && m.TempRegistrationData != "{}" {
		scratch = &entities.ScratchData{}
		if err := json.Unmarshal([]byte(m.TempRegistrationData), scratch); err != nil {
			return nil, err
		}
	}

	e := &entities.Merchant{
		ID:                   m.ID,
		Username:             m.Username,
		Email:                m.Email,
		PasswordHash:         m.PasswordHash,
		Active:               m.IsActive,
		Verified:             m.IsVerified,
		New:                  m.IsNew,
		RegistrationStep:     m.RegistrationStep,
		BusinessName:         m.BusinessName,
		OwnerName:            m.OwnerName,
		PhoneNumber:          m.PhoneNumber,
		BusinessCategories:   []string(m.BusinessCategories),
		BusinessTypes:        []string(m.BusinessTypes),
		BusinessRegistration: entities.RegistrationCategory(m.BusinessRegistration),
		ZipCode:              m.ZipCode,
		Province:             m.Province,
		City:                 m.City,
		Barangay:             m.Barangay,
		StreetName:           m.StreetName,
		HouseNumber:          m.HouseNumber,
		SelfieWithID:         m.SelfieWithID,
		ValidID:              m.ValidID,
		BarangayPermit:       m.BarangayPermit,
		DTISECCertificate:    m.DTISECCertificate,
		BIRCertificate:       m.BIRCertificate,
		MayorsPermit:         m.MayorsPermit,
		OtherDocuments:       otherDocs,
		Status:               entities.MerchantStatus(m.Status),
		TempRegistrationData: scratch,
		Rating:               m.Rating,
		TotalOrders:          m.TotalOrders,
		TotalSales:           m.TotalSales,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}

	if m.Latitude != nil {
		e.Latitude.SetValid(*m.Latitude)
	}
	if m.Longitude != nil {
		e.Longitude.SetValid(*m.Longitude)
	}
	if m.VerificationNotes != nil {
		e.VerificationNotes.SetValid(*m.VerificationNotes)
	}
	if m.VerifiedAt != nil {
		e.VerifiedAt.SetValid(*m.VerifiedAt)
	}
	if m.LastLogin != nil {
		e.LastLogin.SetValid(*m.LastLogin)
	}

	return e, nil
}

// translateDuplicate maps storage-level unique violations onto the same
// field-level "already exists" error shape the pre-write check produces, so
// a commit-time race surfaces exactly like a failed validation pass.
func translateDuplicate(err error) error {
	if err == nil {
		return nil
	}

	var field string
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pqErr) && pqErr.Code == "23505":
		field = duplicateField(string(pqErr.Constraint))
	case errors.Is(err, gorm.ErrDuplicatedKey):
		field = duplicateField(err.Error())
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		field = duplicateField(err.Error())
	default:
		return err
	}

	if field == "" {
		return domainerrors.Conflict("duplicate value")
	}
	return domainerrors.AlreadyExists(field)
}

func duplicateField(detail string) string {
	switch {
	case strings.Contains(detail, "username"):
		return domainRepos.FieldUsername
	case strings.Contains(detail, "phone"):
		return domainRepos.FieldPhoneNumber
	case strings.Contains(detail, "email"):
		return domainRepos.FieldEmail
	}
	return ""
}
