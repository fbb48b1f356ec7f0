package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"rapex.backend/internal/domain/entities"
	domainerrors "rapex.backend/internal/domain/errors"
	"rapex.backend/internal/interfaces/http/response"
	"rapex.backend/internal/usecases"
)

var registrationOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "merchant_registrations_total",
		Help: "Completed registration attempts by mode and outcome",
	},
	[]string{"mode", "outcome"},
)

func init() {
	prometheus.MustRegister(registrationOutcomes)
}

// RegistrationHandler handles the merchant registration endpoints
type RegistrationHandler struct {
	registrationUsecase *usecases.RegistrationUsecase
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrationUsecase *usecases.RegistrationUsecase) *RegistrationHandler {
	return &RegistrationHandler{registrationUsecase: registrationUsecase}
}

type step1Request struct {
	MerchantID uint `json:"merchant_id"`
	entities.Step1Input
}

// SaveStep1 saves general business information
// POST /api/v1/merchants/register/step1
func (h *RegistrationHandler) SaveStep1(c *gin.Context) {
	var req step1Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	progress, err := h.registrationUsecase.SaveStep1(c.Request.Context(), req.MerchantID, &req.Step1Input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, progress)
}

type step2Request struct {
	MerchantID uint `json:"merchant_id" binding:"required"`
	entities.Step2Input
}

// SaveStep2 saves the business location
// POST /api/v1/merchants/register/step2
func (h *RegistrationHandler) SaveStep2(c *gin.Context) {
	var req step2Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	progress, err := h.registrationUsecase.SaveStep2(c.Request.Context(), req.MerchantID, &req.Step2Input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, progress)
}

// SaveStep3 finishes registration with the document uploads. With a
// merchant_id it completes an in-flight step-by-step registration; without
// one it expects the full step-1 and step-2 payload alongside the files and
// runs the whole registration atomically.
// POST /api/v1/merchants/register/step3 (multipart/form-data)
func (h *RegistrationHandler) SaveStep3(c *gin.Context) {
	docs, others, closers, err := h.collectDocuments(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}()

	var (
		result *entities.RegisterResult
		mode   string
	)
	if idValue := c.PostForm("merchant_id"); idValue != "" {
		mode = "incremental"
		merchantID, parseErr := strconv.ParseUint(idValue, 10, 32)
		if parseErr != nil {
			response.Error(c, domainerrors.FieldError("merchant_id", "must be a positive integer"))
			return
		}
		result, err = h.registrationUsecase.CompleteRegistration(c.Request.Context(), uint(merchantID), docs, others)
	} else {
		mode = "atomic"
		step1 := step1FromForm(c)
		step2 := step2FromForm(c)
		result, err = h.registrationUsecase.RegisterAtomic(c.Request.Context(), step1, step2, docs, others)
	}

	if err != nil {
		registrationOutcomes.WithLabelValues(mode, "failure").Inc()
		response.Error(c, err)
		return
	}

	registrationOutcomes.WithLabelValues(mode, "success").Inc()
	response.Success(c, http.StatusCreated, result)
}

// GetProgress returns the registration progress snapshot
// GET /api/v1/merchants/register/progress/:id
func (h *RegistrationHandler) GetProgress(c *gin.Context) {
	merchantID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.Error(c, domainerrors.FieldError("id", "must be a positive integer"))
		return
	}

	progress, err := h.registrationUsecase.GetProgress(c.Request.Context(), uint(merchantID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, progress)
}

// CheckUniqueness reports whether a username, email or phone number is taken
// POST /api/v1/merchants/register/check-uniqueness
func (h *RegistrationHandler) CheckUniqueness(c *gin.Context) {
	var input entities.UniquenessInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	taken, err := h.registrationUsecase.CheckUniqueness(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	label := input.Field
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}
	message := label + " is available"
	if taken {
		message = label + " already exists"
	}
	response.Success(c, http.StatusOK, gin.H{
		"field":   input.Field,
		"value":   input.Value,
		"taken":   taken,
		"message": message,
	})
}

// collectDocuments builds the document set from the multipart form. Each
// named slot takes one file; unknown uploads under other_documents ride
// along as supplementary files.
func (h *RegistrationHandler) collectDocuments(c *gin.Context) (entities.DocumentSet, []*entities.DocumentUpload, []func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, nil, domainerrors.BadRequest("request must be multipart/form-data")
	}

	var closers []func()
	openUpload := func(header *multipart.FileHeader) (*entities.DocumentUpload, error) {
		f, err := header.Open()
		if err != nil {
			return nil, domainerrors.BadRequest("could not read uploaded file " + header.Filename)
		}
		closers = append(closers, func() { f.Close() })
		return &entities.DocumentUpload{Filename: header.Filename, Data: f}, nil
	}

	docs := entities.DocumentSet{}
	for _, key := range []entities.DocumentKey{
		entities.DocumentSelfieWithID,
		entities.DocumentValidID,
		entities.DocumentBarangayPermit,
		entities.DocumentDTISECCertificate,
		entities.DocumentBIRCertificate,
		entities.DocumentMayorsPermit,
	} {
		headers := form.File[string(key)]
		if len(headers) == 0 {
			continue
		}
		upload, err := openUpload(headers[0])
		if err != nil {
			return nil, nil, closers, err
		}
		docs[key] = upload
	}

	var others []*entities.DocumentUpload
	for _, header := range form.File["other_documents"] {
		upload, err := openUpload(header)
		if err != nil {
			return nil, nil, closers, err
		}
		others = append(others, upload)
	}

	return docs, others, closers, nil
}

func step1FromForm(c *gin.Context) *entities.Step1Input {
	return &entities.Step1Input{
		BusinessName:         c.PostForm("business_name"),
		OwnerName:            c.PostForm("owner_name"),
		Username:             c.PostForm("username"),
		PhoneNumber:          c.PostForm("phone_number"),
		Email:                c.PostForm("email"),
		BusinessCategories:   c.PostFormArray("business_categories"),
		BusinessTypes:        c.PostFormArray("business_types"),
		BusinessRegistration: entities.RegistrationCategory(c.PostForm("business_registration")),
	}
}

func step2FromForm(c *gin.Context) *entities.Step2Input {
	return &entities.Step2Input{
		ZipCode:     c.PostForm("zip_code"),
		Province:    c.PostForm("province"),
		City:        c.PostForm("city"),
		Barangay:    c.PostForm("barangay"),
		StreetName:  c.PostForm("street_name"),
		HouseNumber: c.PostForm("house_number"),
		Latitude:    c.PostForm("latitude"),
		Longitude:   c.PostForm("longitude"),
	}
}
