package test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/onboardkit/harness/internal/api/client"
	"github.com/onboardkit/harness/internal/api/middleware"
	"github.com/onboardkit/harness/internal/api/routes"
	"github.com/onboardkit/harness/test/fault"
	"github.com/onboardkit/harness/test/mocks"
	"github.com/onboardkit/harness/test/network"
)

// testClientTimeout is the timeout for test client requests
const testClientTimeout = 5 * time.Second

// LatencyHeader carries the delay the network simulator added to a request
const LatencyHeader = "X-Simulated-Latency"

// Server builds a fiber app that serves the harness mocks over HTTP. Every
// request first passes through the network simulator when it is enabled.
func (h *Harness) Server() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		UnescapePath:          true,
		ErrorHandler:          errorHandler,
	})
	app.Use(middleware.Logger())
	app.Use(h.simulateNetwork)

	app.Get(routes.HealthPath, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "scenario": h.Snapshot().Scenario})
	}).Name("health")

	app.Post(routes.ObjectPath+"/:bucket/*", h.handleUpload).Name("storage.upload")
	app.Delete(routes.ObjectPath+"/:bucket/*", h.handleDelete).Name("storage.delete")
	app.Get(routes.PublicObjectPath+"/:bucket/*", h.handlePublicDownload).Name("storage.public")
	app.Get(routes.SignedObjectPath+"/:bucket/*", h.handleSignedDownload).Name("storage.signed")

	app.Get(routes.PDFPath, h.handlePDFMetadata).Name("pdf.metadata")
	app.Post(routes.GeneratePDFPath, h.handleGeneratePDF).Name("pdf.generate")

	app.Get(routes.UserPath, h.handleUser).Name("auth.user")
	return app
}

// StartServer serves the harness mocks on a local httptest server that is
// closed when the test ends
func (h *Harness) StartServer(t testing.TB) (*httptest.Server, *client.Client) {
	t.Helper()
	server := httptest.NewServer(adaptor.FiberApp(h.Server()))
	t.Cleanup(server.Close)

	c, err := client.NewClient(&client.Options{
		BaseURL: server.URL,
		Timeout: testClientTimeout,
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return server, c
}

func (h *Harness) simulateNetwork(c *fiber.Ctx) error {
	if !h.Network.IsSimulating() {
		return c.Next()
	}
	latency, err := h.Network.SimulateRequest(c.UserContext(), int64(len(c.Body())), 0)
	c.Set(LatencyHeader, latency.String())
	if err != nil {
		return err
	}
	return c.Next()
}

func (h *Harness) handleUpload(c *fiber.Ctx) error {
	res, err := h.Storage.Upload(c.UserContext(), mocks.UploadRequest{
		Bucket: c.Params("bucket"),
		Path:   c.Params("*"),
		Data:   c.Body(),
		Options: mocks.FileOptions{
			ContentType:  requestContentType(c),
			CacheControl: c.Get(fiber.HeaderCacheControl),
			Upsert:       c.Get("x-upsert") == "true",
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func requestContentType(c *fiber.Ctx) string {
	ct := c.Get(fiber.HeaderContentType)
	if ct == "" || ct == fiber.MIMEOctetStream {
		return ""
	}
	return ct
}

func (h *Harness) handleDelete(c *fiber.Ctx) error {
	removed, err := h.Storage.Delete(c.UserContext(), c.Params("bucket"), c.Params("*"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"removed": removed})
}

func (h *Harness) handlePublicDownload(c *fiber.Ctx) error {
	return h.sendObject(c, c.Params("bucket"), c.Params("*"))
}

func (h *Harness) handleSignedDownload(c *fiber.Ctx) error {
	bucket, p, err := h.Storage.VerifySignedURL(c.OriginalURL())
	if err != nil {
		return err
	}
	return h.sendObject(c, bucket, p)
}

func (h *Harness) sendObject(c *fiber.Ctx, bucket, p string) error {
	data, err := h.Storage.Download(c.UserContext(), bucket, p)
	if err != nil {
		return err
	}
	if meta, ok := h.Storage.Metadata(bucket, p); ok {
		c.Set(fiber.HeaderContentType, meta.MimeType)
		c.Set(fiber.HeaderETag, meta.ETag)
		if meta.CacheControl != "" {
			c.Set(fiber.HeaderCacheControl, meta.CacheControl)
		}
	}
	return c.Send(data)
}

func (h *Harness) handlePDFMetadata(c *fiber.Ctx) error {
	pdfURL := c.Query("url")
	if pdfURL == "" {
		return fiber.NewError(fiber.StatusBadRequest, "url query parameter is required")
	}
	rec, ok := h.PDF.PDFMetadata(pdfURL)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "PDF not found")
	}
	return c.JSON(rec)
}

func (h *Harness) handleGeneratePDF(c *fiber.Ctx) error {
	var opts mocks.PDFOptions
	if err := c.BodyParser(&opts); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	res, err := h.PDF.GeneratePDF(c.UserContext(), opts)
	if res == nil {
		return err
	}
	if err != nil {
		return c.Status(statusFor(err)).JSON(res)
	}
	return c.JSON(res)
}

func (h *Harness) handleUser(c *fiber.Ctx) error {
	token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !ok || token == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
	}
	user, err := h.Auth.ValidateAccessToken(token)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	}
	session, err := h.Auth.Session(c.UserContext())
	if err != nil {
		return err
	}
	if session == nil || session.AccessToken != token {
		return fiber.NewError(fiber.StatusUnauthorized, "session is not active")
	}
	return c.JSON(user)
}

// errorHandler renders every error as {"error": ..., "code": ...}
func errorHandler(c *fiber.Ctx, err error) error {
	body := fiber.Map{"error": err.Error()}
	var fe *fault.Error
	if errors.As(err, &fe) {
		body["error"] = fe.Message
		body["code"] = fe.Code
	}
	return c.Status(statusFor(err)).JSON(body)
}

// statusFor maps an error returned by a mock to an HTTP status
func statusFor(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout
	}
	switch fault.KindOf(err) {
	case fault.KindValidation:
		return fiber.StatusBadRequest
	case fault.KindNotFound:
		return fiber.StatusNotFound
	case fault.KindConflict:
		return fiber.StatusConflict
	case fault.KindSimulated:
		if fault.CodeOf(err) == network.CodeTimeout {
			return fiber.StatusGatewayTimeout
		}
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}
