package mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"

	"github.com/onboardkit/harness/test/fault"
)

// DefaultPDFBaseURL prefixes every generated document URL
const DefaultPDFBaseURL = "https://pdf.mock.local/agreements/"

// PDF error codes
const (
	CodeInvalidOptions       = "invalid_options"
	CodePDFUnavailable       = "pdf_service_unavailable"
	CodeSimulatedClientError = "simulated_client_error"
	CodeSimulatedTermsError  = "simulated_terms_error"
	CodePDFDeleteFailed      = "delete_failed"
)

const (
	baseFileSize       = 50000
	bytesPerNameChar   = 100
	bytesPerTermsChar  = 50
	invalidTermsMarker = "invalid"
)

var (
	termsVersionPattern = regexp.MustCompile(`^[\w.\-]+$`)
	nonAlphanumeric     = regexp.MustCompile(`[^a-z0-9]+`)

	pdfValidate = newPDFValidator()
)

func newPDFValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("terms_version", func(fl validator.FieldLevel) bool {
		return termsVersionPattern.MatchString(fl.Field().String())
	})
	return v
}

// PDFOptions describe a document to generate. Field order is validation order.
type PDFOptions struct {
	ClientName   string         `json:"client_name" validate:"required"`
	AgreementID  string         `json:"agreement_id" validate:"required"`
	TermsVersion string         `json:"terms_version" validate:"required,terms_version"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// PDFResult is always returned by GeneratePDF, also when generation fails
type PDFResult struct {
	Success        bool          `json:"success"`
	URL            string        `json:"url,omitempty"`
	FileSize       int64         `json:"file_size"`
	GenerationTime time.Duration `json:"generation_time"`
	GeneratedAt    time.Time     `json:"generated_at"`
	Error          string        `json:"error,omitempty"`
}

// PDFRecord is what the mock remembers about a generated document
type PDFRecord struct {
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
}

// PDFConfig configures the PDF mock
type PDFConfig struct {
	fault.Config
	// BaseURL prefixes generated URLs; empty means DefaultPDFBaseURL
	BaseURL string
	// QualifyByAgreement adds the agreement ID to generated URLs so two
	// agreements for the same client and terms version do not collide.
	// Off by default to keep URLs stable across agreements.
	QualifyByAgreement bool
}

func (c PDFConfig) withDefaults() PDFConfig {
	if c.BaseURL == "" {
		c.BaseURL = DefaultPDFBaseURL
	}
	return c
}

// MockPDF generates deterministic document URLs and sizes from their input
type MockPDF struct {
	base
	cfg     PDFConfig
	records map[string]PDFRecord
}

// NewMockPDF creates a PDF mock with default configuration
func NewMockPDF(opts ...Option) *MockPDF {
	m := &MockPDF{
		cfg:     PDFConfig{}.withDefaults(),
		records: make(map[string]PDFRecord),
	}
	m.base.init(ServicePDF, opts)
	return m
}

// Configure replaces the PDF configuration
func (m *MockPDF) Configure(cfg PDFConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg.withDefaults()
	return nil
}

// ConfigureFaults replaces only the fault policy
func (m *MockPDF) ConfigureFaults(cfg fault.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.Config = cfg
	return nil
}

// Config returns the active configuration
func (m *MockPDF) Config() PDFConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// GeneratePDF validates the options, applies the fault policy and records a
// document. The same client name, terms version and metadata always produce
// the same URL and file size.
func (m *MockPDF) GeneratePDF(ctx context.Context, opts PDFOptions) (*PDFResult, error) {
	cfg := m.Config()
	start := m.inj.Now()
	res := &PDFResult{}
	finish := func(err error) (*PDFResult, error) {
		now := m.inj.Now()
		res.GeneratedAt = now
		res.GenerationTime = now.Sub(start)
		if err != nil {
			res.Success = false
			res.FileSize = 0
			res.URL = ""
			res.Error = err.Error()
			var fe *fault.Error
			if errors.As(err, &fe) {
				res.Error = fe.Message
			}
		}
		m.observe("generate", err)
		return res, err
	}

	if err := validatePDFOptions(opts); err != nil {
		return finish(err)
	}
	if err := m.inj.Delay(ctx, cfg.Config); err != nil {
		return finish(err)
	}
	if m.inj.Roll(cfg.Config) {
		return finish(fault.Simulated(CodePDFUnavailable, "PDF generation service temporarily unavailable"))
	}
	if cfg.ShouldSimulateErrors {
		if strings.Contains(strings.ToLower(opts.ClientName), "error") {
			return finish(fault.Simulated(CodeSimulatedClientError, "simulated PDF generation error triggered by client name"))
		}
		if opts.TermsVersion == invalidTermsMarker {
			return finish(fault.Simulated(CodeSimulatedTermsError, "simulated error triggered by invalid terms version"))
		}
	}

	url := PDFURL(cfg, opts)
	size, err := PDFFileSize(opts)
	if err != nil {
		return finish(fault.Validation(CodeInvalidOptions, "metadata is not serializable"))
	}

	m.mu.Lock()
	m.records[url] = PDFRecord{FileSize: size, CreatedAt: m.inj.Now()}
	m.mu.Unlock()

	res.Success = true
	res.URL = url
	res.FileSize = size
	return finish(nil)
}

func validatePDFOptions(opts PDFOptions) error {
	err := pdfValidate.Struct(opts)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fault.Validation(CodeInvalidOptions, err.Error())
	}
	// validator reports fields in declaration order, so the first error is the first failing check
	first := verrs[0]
	switch first.Field() {
	case "ClientName":
		return fault.Validation(CodeInvalidOptions, "client name is required")
	case "AgreementID":
		return fault.Validation(CodeInvalidOptions, "agreement ID is required")
	case "TermsVersion":
		if first.Tag() == "required" {
			return fault.Validation(CodeInvalidOptions, "terms version is required")
		}
		return fault.Validation(CodeInvalidOptions, "terms version contains invalid characters")
	}
	return fault.Validation(CodeInvalidOptions, first.Error())
}

// SanitizeClientName lower-cases the name, collapses every run of
// non-alphanumeric characters into one hyphen and trims hyphens at both ends
func SanitizeClientName(name string) string {
	return strings.Trim(nonAlphanumeric.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// PDFURL derives the document URL for the given options
func PDFURL(cfg PDFConfig, opts PDFOptions) string {
	cfg = cfg.withDefaults()
	name := SanitizeClientName(opts.ClientName)
	if cfg.QualifyByAgreement {
		name += "-" + SanitizeClientName(opts.AgreementID)
	}
	return cfg.BaseURL + name + "-agreement-" + strings.ReplaceAll(opts.TermsVersion, ".", "-") + ".pdf"
}

// PDFFileSize computes the simulated size of a document:
// 50000 + 100 per client name char + 50 per terms version char + serialized metadata length.
// Characters are counted in UTF-16 code units. A nil Metadata adds nothing, an empty one adds "{}".
func PDFFileSize(opts PDFOptions) (int64, error) {
	size := int64(baseFileSize + utf16Len(opts.ClientName)*bytesPerNameChar + utf16Len(opts.TermsVersion)*bytesPerTermsChar)
	if opts.Metadata == nil {
		return size, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(opts.Metadata); err != nil {
		return 0, err
	}
	return size + int64(len(bytes.TrimRight(buf.Bytes(), "\n"))), nil
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// DeletePDF removes a generated document and reports whether it existed
func (m *MockPDF) DeletePDF(ctx context.Context, url string) (removed bool, err error) {
	defer func() { m.observe("delete", err) }()

	cfg := m.Config()
	if err := m.inj.Delay(ctx, cfg.Config); err != nil {
		return false, err
	}
	if cfg.ShouldSimulateErrors && m.inj.Chance(simulatedDeleteFailure) {
		return false, fault.Simulated(CodePDFDeleteFailed, "failed to delete PDF")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[url]; !ok {
		return false, nil
	}
	delete(m.records, url)
	return true, nil
}

// PDFMetadata returns the record of a generated document
func (m *MockPDF) PDFMetadata(url string) (PDFRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[url]
	return rec, ok
}

// GeneratedPDFs returns the sorted URLs of all generated documents
func (m *MockPDF) GeneratedPDFs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	urls := make([]string, 0, len(m.records))
	for url := range m.records {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// Reset removes all records and restores the default configuration
func (m *MockPDF) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]PDFRecord)
	m.cfg = PDFConfig{}.withDefaults()
}
