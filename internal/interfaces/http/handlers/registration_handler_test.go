package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"rapex.backend/internal/domain/entities"
	"rapex.backend/internal/usecases"
)

func newRegistrationRouter(repo *merchantRepoStub, storage *storageStub, email *emailStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	uc := usecases.NewRegistrationUsecase(repo, uowStub{}, storage, email)
	h := NewRegistrationHandler(uc)

	r := gin.New()
	r.POST("/register/step1", h.SaveStep1)
	r.POST("/register/step2", h.SaveStep2)
	r.POST("/register/step3", h.SaveStep3)
	r.GET("/register/progress/:id", h.GetProgress)
	r.POST("/register/check-uniqueness", h.CheckUniqueness)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func step1Payload() map[string]interface{} {
	return map[string]interface{}{
		"business_name":         "Acme Sari-Sari",
		"owner_name":            "Juan Dela Cruz",
		"username":              "acme",
		"phone_number":          "+63 912 123 1234",
		"email":                 "acme@example.com",
		"business_categories":   []string{"food"},
		"business_types":        []string{"store"},
		"business_registration": "UNREGISTERED",
	}
}

func TestRegistration_StepByStepFlow(t *testing.T) {
	repo := newMerchantRepoStub()
	storage := &storageStub{}
	email := &emailStub{}
	r := newRegistrationRouter(repo, storage, email)

	// step 1 creates the record
	w := postJSON(t, r, "/register/step1", step1Payload())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var progress entities.RegistrationProgress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &progress))
	require.Equal(t, 1, progress.CurrentStep)
	merchantID := progress.MerchantID
	require.NotZero(t, merchantID)

	// step 2 saves the location
	w = postJSON(t, r, "/register/step2", map[string]interface{}{
		"merchant_id":  merchantID,
		"zip_code":     "1000",
		"province":     "Metro Manila",
		"city":         "Manila",
		"barangay":     "Ermita",
		"street_name":  "Taft Avenue",
		"house_number": "123",
		"latitude":     "14.59951278",
		"longitude":    "120.984222",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &progress))
	require.Equal(t, 2, progress.CurrentStep)

	// resumable: progress endpoint reflects the scratch data
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/register/progress/%d", merchantID), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &progress))
	require.False(t, progress.IsComplete)
	require.NotNil(t, progress.TempData)

	// step 3 uploads the documents and completes
	body, contentType := multipartBody(t,
		map[string]string{"merchant_id": fmt.Sprint(merchantID)},
		nil,
		[]string{"selfie_with_id", "valid_id"})
	req = httptest.NewRequest(http.MethodPost, "/register/step3", body)
	req.Header.Set("Content-Type", contentType)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result entities.RegisterResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, merchantID, result.MerchantID)
	require.True(t, result.EmailSent)

	final := repo.byID[merchantID]
	require.True(t, final.Active)
	require.Equal(t, entities.RegistrationSteps, final.RegistrationStep)
	require.Equal(t, "14.599513", final.Latitude.String)
	require.Len(t, email.welcomePasswords, 1)
	require.Len(t, email.welcomePasswords[0], 12)
	require.NotContains(t, w.Body.String(), email.welcomePasswords[0],
		"generated credential must not appear in the response")
}

func TestRegistration_AtomicMultipart(t *testing.T) {
	repo := newMerchantRepoStub()
	storage := &storageStub{}
	email := &emailStub{}
	r := newRegistrationRouter(repo, storage, email)

	body, contentType := multipartBody(t,
		map[string]string{
			"business_name":         "Acme Sari-Sari",
			"owner_name":            "Juan Dela Cruz",
			"username":              "acme",
			"phone_number":          "+63 912 123 1234",
			"email":                 "acme@example.com",
			"business_registration": "REGISTERED_NON_VAT",
			"zip_code":              "1000",
			"province":              "Metro Manila",
			"city":                  "Manila",
			"barangay":              "Ermita",
			"street_name":           "Taft Avenue",
			"house_number":          "123",
			"latitude":              "14.5995",
			"longitude":             "120.9842",
		},
		map[string][]string{"business_categories": {"food", "retail"}},
		[]string{"selfie_with_id", "valid_id", "barangay_permit", "dti_sec_certificate"})

	req := httptest.NewRequest(http.MethodPost, "/register/step3", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result entities.RegisterResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Equal(t, entities.StatusPending, result.Status)

	final := repo.byID[result.MerchantID]
	require.True(t, final.Active)
	require.Equal(t, []string{"food", "retail"}, final.BusinessCategories)
	require.NotEmpty(t, final.BarangayPermit)
	require.Len(t, storage.stored, 4)
}

func TestRegistration_AtomicMissingDocuments(t *testing.T) {
	repo := newMerchantRepoStub()
	r := newRegistrationRouter(repo, &storageStub{}, &emailStub{})

	// VAT-registered but only the base documents
	body, contentType := multipartBody(t,
		map[string]string{
			"business_name":         "Acme",
			"owner_name":            "Juan",
			"username":              "acme",
			"phone_number":          "+63 912 123 1234",
			"email":                 "acme@example.com",
			"business_registration": "REGISTERED_VAT",
			"zip_code":              "1000",
			"province":              "Metro Manila",
			"city":                  "Manila",
			"barangay":              "Ermita",
			"street_name":           "Taft Avenue",
			"house_number":          "123",
		},
		nil,
		[]string{"selfie_with_id", "valid_id"})

	req := httptest.NewRequest(http.MethodPost, "/register/step3", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "bir_certificate")
	require.Contains(t, w.Body.String(), "mayors_permit")
	require.Empty(t, repo.byID, "nothing may be persisted")
}

func TestRegistration_Step1DuplicateUsername(t *testing.T) {
	repo := newMerchantRepoStub()
	r := newRegistrationRouter(repo, &storageStub{}, &emailStub{})

	w := postJSON(t, r, "/register/step1", step1Payload())
	require.Equal(t, http.StatusOK, w.Code)

	// same username, different case
	payload := step1Payload()
	payload["username"] = "ACME"
	payload["email"] = "other@example.com"
	payload["phone_number"] = "+63 912 123 9999"
	w = postJSON(t, r, "/register/step1", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "username")
}

func TestRegistration_CheckUniqueness(t *testing.T) {
	repo := newMerchantRepoStub()
	r := newRegistrationRouter(repo, &storageStub{}, &emailStub{})

	w := postJSON(t, r, "/register/step1", step1Payload())
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, r, "/register/check-uniqueness", map[string]string{
		"field": "email", "value": "ACME@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"taken":true`)
	require.Contains(t, w.Body.String(), `"message":"Email already exists"`)

	w = postJSON(t, r, "/register/check-uniqueness", map[string]string{
		"field": "email", "value": "free@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"taken":false`)
	require.Contains(t, w.Body.String(), `"message":"Email is available"`)

	w = postJSON(t, r, "/register/check-uniqueness", map[string]string{
		"field": "business_name", "value": "Acme",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegistration_ProgressUnknownID(t *testing.T) {
	r := newRegistrationRouter(newMerchantRepoStub(), &storageStub{}, &emailStub{})

	req := httptest.NewRequest(http.MethodGet, "/register/progress/999", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/register/progress/abc", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
