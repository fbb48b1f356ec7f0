package usecases

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"rapex.backend/internal/domain/entities"
	domainerrors "rapex.backend/internal/domain/errors"
	"rapex.backend/internal/domain/repositories"
	"rapex.backend/pkg/crypto"
	"rapex.backend/pkg/logger"
	"rapex.backend/pkg/utils"
)

// DocumentStorage stores uploaded registration documents and removes them
// again when a registration rolls back
type DocumentStorage interface {
	Store(ctx context.Context, relPath string, r io.Reader) (string, error)
	Remove(ctx context.Context, relPath string) error
}

// EmailSender delivers transactional merchant emails
type EmailSender interface {
	SendWelcome(ctx context.Context, to, businessName, username, password string) error
	SendOTP(ctx context.Context, to, code string) error
	SendStatusUpdate(ctx context.Context, to, businessName, status, notes string) error
}

var phonePattern = regexp.MustCompile(entities.PhonePattern)

// RegistrationUsecase handles the merchant registration flows: the single
// atomic submission and the resumable step-by-step variant.
type RegistrationUsecase struct {
	merchantRepo repositories.MerchantRepository
	uow          repositories.UnitOfWork
	storage      DocumentStorage
	email        EmailSender
}

// NewRegistrationUsecase creates a new registration usecase
func NewRegistrationUsecase(
	merchantRepo repositories.MerchantRepository,
	uow repositories.UnitOfWork,
	storage DocumentStorage,
	email EmailSender,
) *RegistrationUsecase {
	return &RegistrationUsecase{
		merchantRepo: merchantRepo,
		uow:          uow,
		storage:      storage,
		email:        email,
	}
}

// CheckUniqueness reports whether the field value is already taken. This is
// the advisory pre-check; the same query runs again inside the registration
// transaction, which is the authoritative one.
func (u *RegistrationUsecase) CheckUniqueness(ctx context.Context, input *entities.UniquenessInput) (bool, error) {
	return u.merchantRepo.Exists(ctx, input.Field, strings.TrimSpace(input.Value))
}

// RegisterAtomic runs the complete three-step registration as one unit:
// either the merchant comes out active with credentials and stored documents,
// or nothing is persisted at all. Stored files are removed again when the
// transaction does not commit.
func (u *RegistrationUsecase) RegisterAtomic(
	ctx context.Context,
	step1 *entities.Step1Input,
	step2 *entities.Step2Input,
	docs entities.DocumentSet,
	others []*entities.DocumentUpload,
) (*entities.RegisterResult, error) {
	if err := validateStep1(step1); err != nil {
		return nil, err
	}
	if err := validateStep2(step2); err != nil {
		return nil, err
	}

	var (
		merchant *entities.Merchant
		password string
		stored   []string
	)

	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.checkAllUnique(txCtx, step1); err != nil {
			return err
		}
		if err := requireDocuments(step1.BusinessRegistration, docs); err != nil {
			return err
		}

		merchant = buildMerchant(step1, step2)
		if err := u.merchantRepo.Create(txCtx, merchant); err != nil {
			return err
		}

		paths, err := u.storeDocuments(txCtx, merchant, docs, others)
		stored = paths
		if err != nil {
			return err
		}

		plain, err := crypto.GeneratePassword()
		if err != nil {
			return err
		}
		hash, err := crypto.HashPassword(plain)
		if err != nil {
			return err
		}
		password = plain

		merchant.PasswordHash = hash
		activate(merchant)
		return u.merchantRepo.Update(txCtx, merchant)
	})
	if err != nil {
		u.removeStored(ctx, stored)
		return nil, err
	}

	return u.finishRegistration(ctx, merchant, password), nil
}

// SaveStep1 saves general business information. A zero merchantID creates a
// fresh inactive record; otherwise the existing record is updated in place.
// Each incremental save commits on its own.
func (u *RegistrationUsecase) SaveStep1(ctx context.Context, merchantID uint, input *entities.Step1Input) (*entities.RegistrationProgress, error) {
	if err := validateStep1(input); err != nil {
		return nil, err
	}

	var merchant *entities.Merchant
	if merchantID == 0 {
		if err := u.checkAllUnique(ctx, input); err != nil {
			return nil, err
		}
		merchant = &entities.Merchant{
			Status: entities.StatusPending,
			New:    true,
		}
	} else {
		existing, err := u.merchantRepo.GetByID(ctx, merchantID)
		if err != nil {
			return nil, err
		}
		if existing.RegistrationComplete() {
			return nil, domainerrors.Conflict("registration already completed")
		}
		if err := u.checkChangedUnique(ctx, existing, input); err != nil {
			return nil, err
		}
		merchant = existing
	}

	applyStep1(merchant, input)
	if merchant.RegistrationStep < 1 {
		merchant.RegistrationStep = 1
	}
	if merchant.TempRegistrationData == nil {
		merchant.TempRegistrationData = &entities.ScratchData{}
	}
	merchant.TempRegistrationData.Step1 = input

	var err error
	if merchant.ID == 0 {
		err = u.merchantRepo.Create(ctx, merchant)
	} else {
		err = u.merchantRepo.Update(ctx, merchant)
	}
	if err != nil {
		return nil, err
	}
	return progressOf(merchant), nil
}

// SaveStep2 saves the business location for an existing in-flight
// registration. Coordinates are normalized before they are stored.
func (u *RegistrationUsecase) SaveStep2(ctx context.Context, merchantID uint, input *entities.Step2Input) (*entities.RegistrationProgress, error) {
	if err := validateStep2(input); err != nil {
		return nil, err
	}

	merchant, err := u.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	if merchant.RegistrationComplete() {
		return nil, domainerrors.Conflict("registration already completed")
	}
	if merchant.RegistrationStep < 1 {
		return nil, domainerrors.BadRequest("step 1 must be completed first")
	}

	applyStep2(merchant, input)
	if merchant.RegistrationStep < 2 {
		merchant.RegistrationStep = 2
	}
	if merchant.TempRegistrationData == nil {
		merchant.TempRegistrationData = &entities.ScratchData{}
	}
	merchant.TempRegistrationData.Step2 = input

	if err := u.merchantRepo.Update(ctx, merchant); err != nil {
		return nil, err
	}
	return progressOf(merchant), nil
}

// CompleteRegistration finishes step 3 for an in-flight registration:
// validates the documents against the declared category, stores them,
// generates the credential and activates the account, all in one
// transaction.
func (u *RegistrationUsecase) CompleteRegistration(
	ctx context.Context,
	merchantID uint,
	docs entities.DocumentSet,
	others []*entities.DocumentUpload,
) (*entities.RegisterResult, error) {
	var (
		merchant *entities.Merchant
		password string
		stored   []string
	)

	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		m, err := u.merchantRepo.GetByID(txCtx, merchantID)
		if err != nil {
			return err
		}
		if m.RegistrationComplete() {
			return domainerrors.Conflict("registration already completed")
		}
		if m.RegistrationStep < 2 {
			return domainerrors.BadRequest("steps 1 and 2 must be completed first")
		}
		if err := requireDocuments(m.BusinessRegistration, docs); err != nil {
			return err
		}
		merchant = m

		paths, err := u.storeDocuments(txCtx, merchant, docs, others)
		stored = paths
		if err != nil {
			return err
		}

		plain, err := crypto.GeneratePassword()
		if err != nil {
			return err
		}
		hash, err := crypto.HashPassword(plain)
		if err != nil {
			return err
		}
		password = plain

		merchant.PasswordHash = hash
		merchant.TempRegistrationData = nil
		activate(merchant)
		return u.merchantRepo.Update(txCtx, merchant)
	})
	if err != nil {
		u.removeStored(ctx, stored)
		return nil, err
	}

	return u.finishRegistration(ctx, merchant, password), nil
}

// GetProgress returns the resumable-flow snapshot for a merchant
func (u *RegistrationUsecase) GetProgress(ctx context.Context, merchantID uint) (*entities.RegistrationProgress, error) {
	merchant, err := u.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	return progressOf(merchant), nil
}

// checkAllUnique is the authoritative uniqueness pass over every identity
// field of step 1.
func (u *RegistrationUsecase) checkAllUnique(ctx context.Context, input *entities.Step1Input) error {
	checks := []struct {
		field string
		value string
	}{
		{repositories.FieldUsername, input.Username},
		{repositories.FieldEmail, input.Email},
		{repositories.FieldPhoneNumber, input.PhoneNumber},
	}
	for _, c := range checks {
		taken, err := u.merchantRepo.Exists(ctx, c.field, c.value)
		if err != nil {
			return err
		}
		if taken {
			return domainerrors.AlreadyExists(c.field)
		}
	}
	return nil
}

// checkChangedUnique re-checks only the identity fields the update actually
// changes, so re-saving step 1 with the same values does not trip over the
// merchant's own record.
func (u *RegistrationUsecase) checkChangedUnique(ctx context.Context, existing *entities.Merchant, input *entities.Step1Input) error {
	checks := []struct {
		field   string
		current string
		next    string
	}{
		{repositories.FieldUsername, existing.Username, input.Username},
		{repositories.FieldEmail, existing.Email, input.Email},
		{repositories.FieldPhoneNumber, existing.PhoneNumber, input.PhoneNumber},
	}
	for _, c := range checks {
		if strings.EqualFold(c.current, c.next) {
			continue
		}
		taken, err := u.merchantRepo.Exists(ctx, c.field, c.next)
		if err != nil {
			return err
		}
		if taken {
			return domainerrors.AlreadyExists(c.field)
		}
	}
	return nil
}

// storeDocuments writes every provided document under the merchant's
// directory and records the resulting paths on the record. It returns every
// path written so far even on failure, so the caller can clean up.
func (u *RegistrationUsecase) storeDocuments(
	ctx context.Context,
	merchant *entities.Merchant,
	docs entities.DocumentSet,
	others []*entities.DocumentUpload,
) ([]string, error) {
	var stored []string

	slots := []struct {
		key    entities.DocumentKey
		target *string
	}{
		{entities.DocumentSelfieWithID, &merchant.SelfieWithID},
		{entities.DocumentValidID, &merchant.ValidID},
		{entities.DocumentBarangayPermit, &merchant.BarangayPermit},
		{entities.DocumentDTISECCertificate, &merchant.DTISECCertificate},
		{entities.DocumentBIRCertificate, &merchant.BIRCertificate},
		{entities.DocumentMayorsPermit, &merchant.MayorsPermit},
	}
	for _, slot := range slots {
		if !docs.Has(slot.key) {
			continue
		}
		upload := docs[slot.key]
		path, err := u.storage.Store(ctx, documentPath(merchant.ID, string(slot.key), upload.Filename), upload.Data)
		if err != nil {
			return stored, err
		}
		stored = append(stored, path)
		*slot.target = path
	}

	for i, upload := range others {
		if upload == nil || upload.Data == nil {
			continue
		}
		path, err := u.storage.Store(ctx, documentPath(merchant.ID, fmt.Sprintf("other_%d", i), upload.Filename), upload.Data)
		if err != nil {
			return stored, err
		}
		stored = append(stored, path)
		merchant.OtherDocuments = append(merchant.OtherDocuments, path)
	}

	return stored, nil
}

func (u *RegistrationUsecase) removeStored(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := u.storage.Remove(ctx, p); err != nil {
			logger.Warn(ctx, "failed to remove document after rollback",
				zap.String("path", p), zap.Error(err))
		}
	}
}

// finishRegistration dispatches the welcome email carrying the generated
// credential. The credential never appears in the API response or the logs;
// a failed dispatch is reported, not fatal.
func (u *RegistrationUsecase) finishRegistration(ctx context.Context, merchant *entities.Merchant, password string) *entities.RegisterResult {
	emailSent := true
	if err := u.email.SendWelcome(ctx, merchant.Email, merchant.BusinessName, merchant.Username, password); err != nil {
		emailSent = false
		logger.Warn(ctx, "failed to send welcome email",
			zap.Uint("merchant_id", merchant.ID), zap.Error(err))
	}
	return &entities.RegisterResult{
		MerchantID:   merchant.ID,
		BusinessName: merchant.BusinessName,
		Status:       merchant.Status,
		EmailSent:    emailSent,
	}
}

func buildMerchant(step1 *entities.Step1Input, step2 *entities.Step2Input) *entities.Merchant {
	m := &entities.Merchant{
		Status: entities.StatusPending,
		New:    true,
	}
	applyStep1(m, step1)
	applyStep2(m, step2)
	return m
}

func applyStep1(m *entities.Merchant, input *entities.Step1Input) {
	m.BusinessName = strings.TrimSpace(input.BusinessName)
	m.OwnerName = strings.TrimSpace(input.OwnerName)
	m.Username = strings.TrimSpace(input.Username)
	m.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	m.Email = strings.TrimSpace(input.Email)
	m.BusinessCategories = input.BusinessCategories
	m.BusinessTypes = input.BusinessTypes
	m.BusinessRegistration = input.BusinessRegistration
}

func applyStep2(m *entities.Merchant, input *entities.Step2Input) {
	m.ZipCode = strings.TrimSpace(input.ZipCode)
	m.Province = strings.TrimSpace(input.Province)
	m.City = strings.TrimSpace(input.City)
	m.Barangay = strings.TrimSpace(input.Barangay)
	m.StreetName = strings.TrimSpace(input.StreetName)
	m.HouseNumber = strings.TrimSpace(input.HouseNumber)

	if lat := utils.NormalizeCoordinate(input.Latitude); strings.TrimSpace(lat) != "" {
		m.Latitude.SetValid(lat)
	} else {
		m.Latitude.Valid = false
	}
	if lng := utils.NormalizeCoordinate(input.Longitude); strings.TrimSpace(lng) != "" {
		m.Longitude.SetValid(lng)
	} else {
		m.Longitude.Valid = false
	}
}

func activate(m *entities.Merchant) {
	m.Active = true
	m.New = true
	m.RegistrationStep = entities.RegistrationSteps
	m.Status = entities.StatusPending
}

func progressOf(m *entities.Merchant) *entities.RegistrationProgress {
	return &entities.RegistrationProgress{
		MerchantID:           m.ID,
		CurrentStep:          m.RegistrationStep,
		IsComplete:           m.RegistrationComplete(),
		TempData:             m.TempRegistrationData,
		BusinessRegistration: m.BusinessRegistration,
	}
}

func requireDocuments(category entities.RegistrationCategory, docs entities.DocumentSet) error {
	missing := entities.MissingDocuments(category, docs)
	if len(missing) == 0 {
		return nil
	}
	fields := make(map[string]string, len(missing))
	for _, key := range missing {
		fields[string(key)] = "this document is required"
	}
	return domainerrors.Validation(fields)
}

func documentPath(merchantID uint, slot, filename string) string {
	suffix := strings.Split(uuid.New().String(), "-")[0]
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("merchants/%d/%s_%s%s", merchantID, slot, suffix, ext)
}
