package client

import "fmt"

// ErrorResponse is the body the mock endpoint sends with a non-2xx status
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error is returned for every non-2xx response
type Error struct {
	Status  int
	Code    string
	Message string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("status %d: %s: %s", e.Status, e.Code, e.Message)
}

// UploadOptions are sent as request headers with an upload
type UploadOptions struct {
	ContentType  string
	CacheControl string
	Upsert       bool
}

// UploadResponse is the body of a successful upload
type UploadResponse struct {
	Path     string `json:"path"`
	ID       string `json:"id"`
	FullPath string `json:"full_path"`
}

// DeleteResponse reports whether a delete removed anything
type DeleteResponse struct {
	Removed bool `json:"removed"`
}

// GeneratePDFRequest describes a document to render
type GeneratePDFRequest struct {
	ClientName   string         `json:"client_name"`
	AgreementID  string         `json:"agreement_id"`
	TermsVersion string         `json:"terms_version"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// GeneratePDFResponse is the body of a render request, also sent on failure
type GeneratePDFResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url,omitempty"`
	FileSize int64  `json:"file_size"`
	Error    string `json:"error,omitempty"`
}

// PDFMetadataResponse describes a generated document
type PDFMetadataResponse struct {
	FileSize  int64  `json:"file_size"`
	CreatedAt string `json:"created_at"`
}

// UserResponse is the user behind a bearer token
type UserResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	IsActive    bool     `json:"is_active"`
}
