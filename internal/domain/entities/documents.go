package entities

import "io"

// DocumentKey identifies a registration document slot
type DocumentKey string

const (
	DocumentSelfieWithID      DocumentKey = "selfie_with_id"
	DocumentValidID           DocumentKey = "valid_id"
	DocumentBarangayPermit    DocumentKey = "barangay_permit"
	DocumentDTISECCertificate DocumentKey = "dti_sec_certificate"
	DocumentBIRCertificate    DocumentKey = "bir_certificate"
	DocumentMayorsPermit      DocumentKey = "mayors_permit"
)

// DocumentUpload is an uploaded file pending storage
type DocumentUpload struct {
	Filename string
	Data     io.Reader
}

// DocumentSet maps document slots to uploaded files. Keys absent or mapped
// to nil count as not provided.
type DocumentSet map[DocumentKey]*DocumentUpload

// Has reports whether the slot holds an actual upload
func (s DocumentSet) Has(key DocumentKey) bool {
	d, ok := s[key]
	return ok && d != nil && d.Data != nil
}

// RequiredDocuments returns the document slots the given registration
// category must provide. Each registered tier adds to the previous one.
// This is the single source of truth consumed by both the incremental and
// the atomic registration paths.
func RequiredDocuments(category RegistrationCategory) []DocumentKey {
	required := []DocumentKey{DocumentSelfieWithID, DocumentValidID}

	switch category {
	case CategoryRegisteredNonVAT:
		required = append(required, DocumentBarangayPermit, DocumentDTISECCertificate)
	case CategoryRegisteredVAT:
		required = append(required,
			DocumentBarangayPermit, DocumentDTISECCertificate,
			DocumentBIRCertificate, DocumentMayorsPermit)
	}

	return required
}

// MissingDocuments returns, in requirement order, every required slot the
// set does not provide. Extra unrelated documents never cause a failure.
func MissingDocuments(category RegistrationCategory, docs DocumentSet) []DocumentKey {
	var missing []DocumentKey
	for _, key := range RequiredDocuments(category) {
		if !docs.Has(key) {
			missing = append(missing, key)
		}
	}
	return missing
}

// ValidateDocuments reports whether the set satisfies the category's
// requirements.
func ValidateDocuments(category RegistrationCategory, docs DocumentSet) bool {
	return len(MissingDocuments(category, docs)) == 0
}
