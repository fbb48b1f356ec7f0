package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func upload(name string) *DocumentUpload {
	return &DocumentUpload{Filename: name, Data: strings.NewReader("content")}
}

func fullSet(keys ...DocumentKey) DocumentSet {
	set := DocumentSet{}
	for _, k := range keys {
		set[k] = upload(string(k) + ".jpg")
	}
	return set
}

func TestRequiredDocuments(t *testing.T) {
	assert.Equal(t,
		[]DocumentKey{DocumentSelfieWithID, DocumentValidID},
		RequiredDocuments(CategoryUnregistered))

	assert.Equal(t,
		[]DocumentKey{DocumentSelfieWithID, DocumentValidID, DocumentBarangayPermit, DocumentDTISECCertificate},
		RequiredDocuments(CategoryRegisteredNonVAT))

	assert.Equal(t,
		[]DocumentKey{
			DocumentSelfieWithID, DocumentValidID,
			DocumentBarangayPermit, DocumentDTISECCertificate,
			DocumentBIRCertificate, DocumentMayorsPermit,
		},
		RequiredDocuments(CategoryRegisteredVAT))
}

func TestValidateDocuments_ExactRequiredSet(t *testing.T) {
	categories := []RegistrationCategory{
		CategoryUnregistered,
		CategoryRegisteredNonVAT,
		CategoryRegisteredVAT,
	}

	for _, cat := range categories {
		t.Run(string(cat), func(t *testing.T) {
			required := RequiredDocuments(cat)
			set := fullSet(required...)
			assert.True(t, ValidateDocuments(cat, set))

			// removing any one required document causes rejection
			for _, key := range required {
				partial := fullSet(required...)
				delete(partial, key)
				assert.False(t, ValidateDocuments(cat, partial), "removed %s", key)
				assert.Contains(t, MissingDocuments(cat, partial), key)
			}
		})
	}
}

func TestValidateDocuments_ExtraDocumentsNeverReject(t *testing.T) {
	set := fullSet(DocumentSelfieWithID, DocumentValidID,
		DocumentBarangayPermit, DocumentBIRCertificate, DocumentMayorsPermit)
	assert.True(t, ValidateDocuments(CategoryUnregistered, set))
}

func TestMissingDocuments_NamesEveryGap(t *testing.T) {
	set := fullSet(DocumentSelfieWithID, DocumentValidID, DocumentBarangayPermit)
	missing := MissingDocuments(CategoryRegisteredVAT, set)
	assert.Equal(t,
		[]DocumentKey{DocumentDTISECCertificate, DocumentBIRCertificate, DocumentMayorsPermit},
		missing)
}

func TestDocumentSet_NilEntriesNotProvided(t *testing.T) {
	set := DocumentSet{
		DocumentSelfieWithID: nil,
		DocumentValidID:      {Filename: "id.jpg"}, // no data reader
	}
	assert.False(t, set.Has(DocumentSelfieWithID))
	assert.False(t, set.Has(DocumentValidID))
	assert.False(t, ValidateDocuments(CategoryUnregistered, set))
}

func TestMerchant_RequiredDocumentsUploaded(t *testing.T) {
	m := &Merchant{
		BusinessRegistration: CategoryRegisteredNonVAT,
		SelfieWithID:         "merchants/1/documents/selfie.jpg",
		ValidID:              "merchants/1/documents/id.jpg",
		BarangayPermit:       "merchants/1/documents/permit.jpg",
	}
	assert.False(t, m.RequiredDocumentsUploaded())

	m.DTISECCertificate = "merchants/1/documents/dti.jpg"
	assert.True(t, m.RequiredDocumentsUploaded())

	m.BusinessRegistration = CategoryRegisteredVAT
	assert.False(t, m.RequiredDocumentsUploaded())
}
