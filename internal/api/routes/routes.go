// Package routes holds the paths served by the mock service endpoint
package routes

import (
	"net/url"
	"strings"
)

// DefaultBaseURL is where the mock endpoint listens when run standalone
const DefaultBaseURL = "http://localhost:54321"

const (
	// HealthPath answers liveness checks
	HealthPath = "/health"

	// ObjectPath accepts uploads as /storage/v1/object/{bucket}/{path}
	ObjectPath = "/storage/v1/object"
	// PublicObjectPath serves /storage/v1/object/public/{bucket}/{path}
	PublicObjectPath = ObjectPath + "/public"
	// SignedObjectPath serves signed URLs minted by the storage mock
	SignedObjectPath = ObjectPath + "/sign"

	// PDFPath looks up a generated document by its url query parameter
	PDFPath = "/pdf"
	// GeneratePDFPath renders a document
	GeneratePDFPath = PDFPath + "/generate"

	// UserPath resolves the bearer token to its user
	UserPath = "/auth/v1/user"
)

// ObjectURL returns the upload endpoint of an object
func ObjectURL(bucket, p string) string {
	return ObjectPath + "/" + escapeObject(bucket, p)
}

// PublicObjectURL returns the public download endpoint of an object
func PublicObjectURL(bucket, p string) string {
	return PublicObjectPath + "/" + escapeObject(bucket, p)
}

// PDFMetadataURL returns the lookup endpoint for a generated document
func PDFMetadataURL(pdfURL string) string {
	return PDFPath + "?" + url.Values{"url": {pdfURL}}.Encode()
}

func escapeObject(bucket, p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return url.PathEscape(bucket) + "/" + strings.Join(parts, "/")
}
