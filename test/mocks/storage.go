package mocks

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/onboardkit/harness/test/fault"
)

// Storage defaults
const (
	DefaultUploadLimit    int64 = 10 * 1024 * 1024
	DefaultStorageBaseURL       = "https://storage.mock.local"
	DefaultOwner                = "mock-owner"

	// NonexistentBucket is the bucket name that fails uploads when errors are simulated
	NonexistentBucket = "nonexistent"

	publicPrefix = "/storage/v1/object/public/"
	signPrefix   = "/storage/v1/object/sign/"
)

// Storage error codes
const (
	CodeStorageNetwork   = "network_error"
	CodeInvalidPath      = "invalid_path"
	CodeBucketNotFound   = "bucket_not_found"
	CodeFileTooLarge     = "file_too_large"
	CodeAlreadyExists    = "already_exists"
	CodeObjectNotFound   = "object_not_found"
	CodeDeleteFailed     = "delete_failed"
	CodeInvalidRequest   = "invalid_request"
	CodeInvalidSignature = "invalid_signature"
	CodeSignedURLExpired = "signed_url_expired"
)

// simulatedDeleteFailure is the chance a delete fails when errors are simulated
const simulatedDeleteFailure = 0.1

var mimeTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".json": "application/json",
	".html": "text/html",
	".xml":  "application/xml",
	".zip":  "application/zip",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// MimeType returns the content type for a file name based on its extension.
// Unknown extensions map to application/octet-stream.
func MimeType(name string) string {
	if t, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return t
	}
	return "application/octet-stream"
}

// StorageConfig configures the storage mock
type StorageConfig struct {
	fault.Config
	// UploadLimit is the maximum object size in bytes; zero means DefaultUploadLimit
	UploadLimit int64
	// BaseURL prefixes public and signed URLs; empty means DefaultStorageBaseURL
	BaseURL string
}

func (c StorageConfig) withDefaults() StorageConfig {
	if c.UploadLimit <= 0 {
		c.UploadLimit = DefaultUploadLimit
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultStorageBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return c
}

// FileOptions are the optional upload parameters
type FileOptions struct {
	ContentType  string
	CacheControl string
	Upsert       bool
	Owner        string
}

// UploadRequest describes one upload
type UploadRequest struct {
	Bucket  string
	Path    string
	Data    []byte
	Options FileOptions
}

// UploadResult is returned by a successful upload
type UploadResult struct {
	Path     string `json:"path"`
	ID       string `json:"id"`
	FullPath string `json:"full_path"`
}

// FileMetadata describes a stored object
type FileMetadata struct {
	Name           string    `json:"name"`
	Bucket         string    `json:"bucket"`
	Owner          string    `json:"owner"`
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	Size           int64     `json:"size"`
	MimeType       string    `json:"mimetype"`
	ETag           string    `json:"etag"`
	CacheControl   string    `json:"cache_control,omitempty"`
}

type storedFile struct {
	data []byte
	meta FileMetadata
}

// MockStorage is an in-memory object store keyed by bucket and path
type MockStorage struct {
	base
	cfg   StorageConfig
	files map[string]*storedFile
}

// NewMockStorage creates an empty storage mock with default configuration
func NewMockStorage(opts ...Option) *MockStorage {
	s := &MockStorage{
		cfg:   StorageConfig{}.withDefaults(),
		files: make(map[string]*storedFile),
	}
	s.base.init(ServiceStorage, opts)
	return s
}

// validateObject rejects empty names and buckets containing "/", which would make storageKey ambiguous
func validateObject(bucket, p string) error {
	if bucket == "" || p == "" {
		return fault.Validation(CodeInvalidRequest, "bucket and path are required")
	}
	if strings.Contains(bucket, "/") {
		return fault.Validation(CodeInvalidRequest, fmt.Sprintf("bucket name must not contain '/': %s", bucket))
	}
	return nil
}

func storageKey(bucket, p string) string {
	return bucket + "/" + p
}

// ETag returns the entity tag for the given content
func ETag(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Configure replaces the storage configuration
func (s *MockStorage) Configure(cfg StorageConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.withDefaults()
	return nil
}

// ConfigureFaults replaces only the fault policy, keeping limits and base URL
func (s *MockStorage) ConfigureFaults(cfg fault.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Config = cfg
	return nil
}

// Config returns the active configuration
func (s *MockStorage) Config() StorageConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetUploadLimit changes the maximum object size
func (s *MockStorage) SetUploadLimit(limit int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.UploadLimit = limit
	s.cfg = s.cfg.withDefaults()
}

func (s *MockStorage) faults() fault.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Config
}

// Upload stores a file. Existing files are only replaced when Options.Upsert is set.
func (s *MockStorage) Upload(ctx context.Context, req UploadRequest) (res *UploadResult, err error) {
	defer func() { s.observe("upload", err) }()

	if err := validateObject(req.Bucket, req.Path); err != nil {
		return nil, err
	}

	cfg := s.faults()
	if err := s.inj.Delay(ctx, cfg); err != nil {
		return nil, err
	}
	if s.inj.Roll(cfg) {
		return nil, fault.Simulated(CodeStorageNetwork, "network error: failed to upload file")
	}
	if cfg.ShouldSimulateErrors && strings.Contains(req.Path, "invalid") {
		return nil, fault.Simulated(CodeInvalidPath, fmt.Sprintf("invalid file path: %s", req.Path))
	}
	if cfg.ShouldSimulateErrors && req.Bucket == NonexistentBucket {
		return nil, fault.Simulated(CodeBucketNotFound, fmt.Sprintf("bucket not found: %s", req.Bucket))
	}

	// existence and size are checked under the same lock as the write
	s.mu.Lock()
	defer s.mu.Unlock()

	size := int64(len(req.Data))
	if size > s.cfg.UploadLimit {
		return nil, fault.Validation(CodeFileTooLarge,
			fmt.Sprintf("file size %d exceeds upload limit of %d bytes", size, s.cfg.UploadLimit))
	}

	key := storageKey(req.Bucket, req.Path)
	existing, exists := s.files[key]
	if exists && !req.Options.Upsert {
		return nil, fault.Conflict(CodeAlreadyExists, fmt.Sprintf("file already exists: %s", key))
	}

	now := s.inj.Now()
	mime := req.Options.ContentType
	if mime == "" {
		mime = MimeType(req.Path)
	}
	owner := req.Options.Owner
	if owner == "" {
		owner = DefaultOwner
	}

	meta := FileMetadata{
		Name:         req.Path,
		Bucket:       req.Bucket,
		Owner:        owner,
		ID:           uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
		Size:         size,
		MimeType:     mime,
		ETag:         ETag(req.Data),
		CacheControl: req.Options.CacheControl,
	}
	if exists {
		meta.CreatedAt = existing.meta.CreatedAt
		meta.LastAccessedAt = existing.meta.LastAccessedAt
	}

	data := make([]byte, len(req.Data))
	copy(data, req.Data)
	s.files[key] = &storedFile{data: data, meta: meta}

	return &UploadResult{Path: req.Path, ID: meta.ID, FullPath: key}, nil
}

// Download returns a copy of the stored bytes and marks the file as accessed
func (s *MockStorage) Download(ctx context.Context, bucket, p string) (data []byte, err error) {
	defer func() { s.observe("download", err) }()

	cfg := s.faults()
	if err := s.inj.Delay(ctx, cfg); err != nil {
		return nil, err
	}
	if s.inj.Roll(cfg) {
		return nil, fault.Simulated(CodeStorageNetwork, "network error: failed to download file")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[storageKey(bucket, p)]
	if !ok {
		return nil, fault.NotFound(CodeObjectNotFound, fmt.Sprintf("file not found: %s", storageKey(bucket, p)))
	}
	f.meta.LastAccessedAt = s.inj.Now()
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out, nil
}

// Delete removes a file and reports whether it existed
func (s *MockStorage) Delete(ctx context.Context, bucket, p string) (removed bool, err error) {
	defer func() { s.observe("delete", err) }()

	cfg := s.faults()
	if err := s.inj.Delay(ctx, cfg); err != nil {
		return false, err
	}
	if cfg.ShouldSimulateErrors && s.inj.Chance(simulatedDeleteFailure) {
		return false, fault.Simulated(CodeDeleteFailed, "failed to delete file")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := storageKey(bucket, p)
	if _, ok := s.files[key]; !ok {
		return false, nil
	}
	delete(s.files, key)
	return true, nil
}

// List returns the metadata of files in bucket whose path starts with prefix,
// sorted by name. An unknown bucket yields an empty list.
func (s *MockStorage) List(ctx context.Context, bucket, prefix string) ([]FileMetadata, error) {
	if err := s.inj.Delay(ctx, s.faults()); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	want := storageKey(bucket, prefix)
	out := []FileMetadata{}
	for key, f := range s.files {
		if strings.HasPrefix(key, want) {
			out = append(out, f.meta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	s.observe("list", nil)
	return out, nil
}

// PublicURL builds the public URL of an object. It never fails and does not touch state.
func (s *MockStorage) PublicURL(bucket, p string) string {
	return s.Config().BaseURL + publicPrefix + storageKey(bucket, p)
}

// CreateSignedURL builds a URL that is valid until now+expiresIn. The object need not exist.
func (s *MockStorage) CreateSignedURL(bucket, p string, expiresIn time.Duration) (string, error) {
	if err := validateObject(bucket, p); err != nil {
		return "", err
	}
	expires := s.inj.Now().Add(expiresIn).Unix()
	return fmt.Sprintf("%s%s%s?token=%s&expires=%d",
		s.Config().BaseURL, signPrefix, storageKey(bucket, p), signature(bucket, p, expires), expires), nil
}

func signature(bucket, p string, expires int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", storageKey(bucket, p), expires)))
	return hex.EncodeToString(sum[:])[:32]
}

// VerifySignedURL checks a URL produced by CreateSignedURL and returns the object it grants
func (s *MockStorage) VerifySignedURL(raw string) (bucket, p string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fault.Validation(CodeInvalidSignature, "malformed signed URL")
	}
	bucket, p, ok := SplitObjectPath(strings.TrimPrefix(u.Path, signPrefix))
	if !ok || !strings.HasPrefix(u.Path, signPrefix) {
		return "", "", fault.Validation(CodeInvalidSignature, "not a signed object URL")
	}
	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	if err != nil {
		return "", "", fault.Validation(CodeInvalidSignature, "missing expiry")
	}
	if u.Query().Get("token") != signature(bucket, p, expires) {
		return "", "", fault.Validation(CodeInvalidSignature, "signature mismatch")
	}
	if s.inj.Now().Unix() >= expires {
		return "", "", fault.Validation(CodeSignedURLExpired, "signed URL has expired")
	}
	return bucket, p, nil
}

// SplitObjectPath splits "bucket/some/path" into its bucket and path
func SplitObjectPath(objectPath string) (bucket, p string, ok bool) {
	bucket, p, ok = strings.Cut(objectPath, "/")
	if !ok || bucket == "" || p == "" {
		return "", "", false
	}
	return bucket, p, true
}

// Metadata returns the stored metadata without marking the file as accessed
func (s *MockStorage) Metadata(bucket, p string) (FileMetadata, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[storageKey(bucket, p)]
	if !ok {
		return FileMetadata{}, false
	}
	return f.meta, true
}

// TotalStorageUsed returns the sum of the sizes of all stored files
func (s *MockStorage) TotalStorageUsed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, f := range s.files {
		total += f.meta.Size
	}
	return total
}

// StoredFiles returns the sorted "bucket/path" keys of all stored files
func (s *MockStorage) StoredFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.files))
	for key := range s.files {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// FileCount returns the number of stored files
func (s *MockStorage) FileCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

// Reset removes all files and restores the default configuration
func (s *MockStorage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string]*storedFile)
	s.cfg = StorageConfig{}.withDefaults()
}
