package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"rapex.backend/internal/domain/entities"
	domainerrors "rapex.backend/internal/domain/errors"
	"rapex.backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init("development")
	m.Run()
}

// merchantRepoStub is an in-memory merchant repository
type merchantRepoStub struct {
	byID   map[uint]*entities.Merchant
	nextID uint
}

func newMerchantRepoStub() *merchantRepoStub {
	return &merchantRepoStub{byID: map[uint]*entities.Merchant{}, nextID: 1}
}

func (s *merchantRepoStub) Create(_ context.Context, m *entities.Merchant) error {
	m.ID = s.nextID
	s.nextID++
	m.CreatedAt = time.Now()
	m.UpdatedAt = time.Now()
	copied := *m
	s.byID[m.ID] = &copied
	return nil
}

func (s *merchantRepoStub) GetByID(_ context.Context, id uint) (*entities.Merchant, error) {
	m, ok := s.byID[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	copied := *m
	return &copied, nil
}

func (s *merchantRepoStub) GetByEmail(_ context.Context, email string) (*entities.Merchant, error) {
	for _, m := range s.byID {
		if strings.EqualFold(m.Email, email) {
			copied := *m
			return &copied, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (s *merchantRepoStub) GetByUsername(_ context.Context, username string) (*entities.Merchant, error) {
	for _, m := range s.byID {
		if strings.EqualFold(m.Username, username) {
			copied := *m
			return &copied, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (s *merchantRepoStub) Exists(_ context.Context, field, value string) (bool, error) {
	for _, m := range s.byID {
		switch field {
		case "username":
			if strings.EqualFold(m.Username, value) {
				return true, nil
			}
		case "email":
			if strings.EqualFold(m.Email, value) {
				return true, nil
			}
		case "phone_number":
			if m.PhoneNumber == value {
				return true, nil
			}
		default:
			return false, domainerrors.BadRequest("unsupported uniqueness field: " + field)
		}
	}
	return false, nil
}

func (s *merchantRepoStub) Update(_ context.Context, m *entities.Merchant) error {
	if _, ok := s.byID[m.ID]; !ok {
		return domainerrors.ErrNotFound
	}
	m.UpdatedAt = time.Now()
	copied := *m
	s.byID[m.ID] = &copied
	return nil
}

func (s *merchantRepoStub) UpdatePassword(_ context.Context, id uint, hash string) error {
	m, ok := s.byID[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	m.PasswordHash = hash
	return nil
}

func (s *merchantRepoStub) UpdateStatus(_ context.Context, id uint, status entities.MerchantStatus) error {
	m, ok := s.byID[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	m.Status = status
	return nil
}

func (s *merchantRepoStub) ListStaleIncomplete(context.Context, time.Time, int) ([]*entities.Merchant, error) {
	return nil, nil
}

func (s *merchantRepoStub) Delete(_ context.Context, id uint) error {
	if _, ok := s.byID[id]; !ok {
		return domainerrors.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// uowStub runs the function directly; handler tests exercise wiring, not
// transaction semantics
type uowStub struct{}

func (uowStub) Do(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type storageStub struct {
	stored  []string
	removed []string
}

func (s *storageStub) Store(_ context.Context, relPath string, _ io.Reader) (string, error) {
	s.stored = append(s.stored, relPath)
	return relPath, nil
}

func (s *storageStub) Remove(_ context.Context, relPath string) error {
	s.removed = append(s.removed, relPath)
	return nil
}

type emailStub struct {
	welcomePasswords []string
	otpCodes         []string
}

func (s *emailStub) SendWelcome(_ context.Context, _, _, _, password string) error {
	s.welcomePasswords = append(s.welcomePasswords, password)
	return nil
}

func (s *emailStub) SendOTP(_ context.Context, _, code string) error {
	s.otpCodes = append(s.otpCodes, code)
	return nil
}

func (s *emailStub) SendStatusUpdate(context.Context, string, string, string, string) error {
	return nil
}

// multipartBody builds a multipart form with the given fields and one fake
// file per named document slot
func multipartBody(t *testing.T, fields map[string]string, arrays map[string][]string, files []string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	for key, values := range arrays {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				t.Fatalf("write array field %s: %v", key, err)
			}
		}
	}
	for _, name := range files {
		part, err := writer.CreateFormFile(name, name+".png")
		if err != nil {
			t.Fatalf("create form file %s: %v", name, err)
		}
		if _, err := part.Write([]byte("fake-" + name)); err != nil {
			t.Fatalf("write form file %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}
