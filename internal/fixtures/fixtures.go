// Package fixtures holds the deterministic client, agreement and user data shared by
// the mock services and the database seeder
package fixtures

import (
	"fmt"
	"time"
)

// Role is the role of an application user
type Role string

// User roles
const (
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
	RoleViewer   Role = "viewer"
)

// ParseRole converts a string to a Role
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleOperator, RoleAdmin, RoleViewer:
		return r, nil
	}
	return "", fmt.Errorf("invalid user role: %s", s)
}

// Permissions granted through fixture users
const (
	PermClientsRead     = "clients:read"
	PermClientsWrite    = "clients:write"
	PermAgreementsRead  = "agreements:read"
	PermAgreementsWrite = "agreements:write"
	PermAgreementsSend  = "agreements:send"
	PermUsersManage     = "users:manage"
	PermAuditRead       = "audit:read"
)

// ClientStatus is the onboarding status of a client
type ClientStatus string

// Client statuses
const (
	ClientPending   ClientStatus = "pending"
	ClientActive    ClientStatus = "active"
	ClientOnboarded ClientStatus = "onboarded"
)

// AgreementStatus is the lifecycle status of an agreement
type AgreementStatus string

// Agreement statuses
const (
	AgreementDraft  AgreementStatus = "draft"
	AgreementSent   AgreementStatus = "sent"
	AgreementSigned AgreementStatus = "signed"
)

// Client is a company being onboarded
type Client struct {
	ID          string       `json:"id" validate:"required,uuid"`
	CompanyName string       `json:"company_name" validate:"required,max=200"`
	ContactName string       `json:"contact_name" validate:"required"`
	Email       string       `json:"email" validate:"required,email"`
	Phone       string       `json:"phone" validate:"omitempty,e164"`
	Status      ClientStatus `json:"status" validate:"required,oneof=pending active onboarded"`
	CreatedAt   time.Time    `json:"created_at" validate:"required"`
}

// Agreement is a terms agreement issued to a client
type Agreement struct {
	ID           string          `json:"id" validate:"required,uuid"`
	ClientID     string          `json:"client_id" validate:"required,uuid"`
	TermsVersion string          `json:"terms_version" validate:"required"`
	Status       AgreementStatus `json:"status" validate:"required,oneof=draft sent signed"`
	PDFPath      string          `json:"pdf_path"`
	SignedAt     *time.Time      `json:"signed_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at" validate:"required"`
}

// User is an application user able to sign in
type User struct {
	ID          string   `json:"id" validate:"required"`
	Email       string   `json:"email" validate:"required,email"`
	Name        string   `json:"name" validate:"required"`
	Role        Role     `json:"role" validate:"required,oneof=operator admin viewer"`
	Permissions []string `json:"permissions" validate:"dive,required"`
	IsActive    bool     `json:"is_active"`
}

// Well-known fixture identifiers
const (
	MainOperatorID = "user-operator-1"
	AdminUserID    = "user-admin-1"
	ViewerUserID   = "user-viewer-1"
	InactiveUserID = "user-inactive-1"

	AcmeClientID     = "6f1c2a4e-8b7d-4e8a-9f3b-1a2b3c4d5e01"
	GlobexClientID   = "6f1c2a4e-8b7d-4e8a-9f3b-1a2b3c4d5e02"
	InitechClientID  = "6f1c2a4e-8b7d-4e8a-9f3b-1a2b3c4d5e03"
	UmbrellaClientID = "6f1c2a4e-8b7d-4e8a-9f3b-1a2b3c4d5e04"

	AcmeAgreementID       = "0b9e7d2c-3f4a-4b5c-8d6e-7f8091a2b301"
	AcmeRenewalID         = "0b9e7d2c-3f4a-4b5c-8d6e-7f8091a2b302"
	GlobexAgreementID     = "0b9e7d2c-3f4a-4b5c-8d6e-7f8091a2b303"
	InitechAgreementID    = "0b9e7d2c-3f4a-4b5c-8d6e-7f8091a2b304"
	UmbrellaAgreementID   = "0b9e7d2c-3f4a-4b5c-8d6e-7f8091a2b305"
	CurrentTermsVersion   = "2.1.0"
	PreviousTermsVersion  = "2.0.0"
	AgreementsBucket      = "agreements"
	ClientDocumentsBucket = "client-documents"
)

var (
	baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	signedAt = time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)
)

// Clients returns the client fixtures
func Clients() []Client {
	return []Client{
		{ID: AcmeClientID, CompanyName: "Acme Corporation", ContactName: "Wile Coyote", Email: "contact@acme.test", Phone: "+15555550101", Status: ClientOnboarded, CreatedAt: baseTime},
		{ID: GlobexClientID, CompanyName: "Globex Industries", ContactName: "Hank Scorpio", Email: "hank@globex.test", Phone: "+15555550102", Status: ClientActive, CreatedAt: baseTime.Add(24 * time.Hour)},
		{ID: InitechClientID, CompanyName: "Initech LLC", ContactName: "Bill Lumbergh", Email: "bill@initech.test", Status: ClientPending, CreatedAt: baseTime.Add(48 * time.Hour)},
		{ID: UmbrellaClientID, CompanyName: "Umbrella Holdings & Co.", ContactName: "Alice Abernathy", Email: "alice@umbrella.test", Phone: "+15555550104", Status: ClientPending, CreatedAt: baseTime.Add(72 * time.Hour)},
	}
}

// Agreements returns the agreement fixtures
func Agreements() []Agreement {
	signed := signedAt
	return []Agreement{
		{ID: AcmeAgreementID, ClientID: AcmeClientID, TermsVersion: PreviousTermsVersion, Status: AgreementSigned, PDFPath: AcmeClientID + "/" + AcmeAgreementID + ".pdf", SignedAt: &signed, CreatedAt: baseTime},
		{ID: AcmeRenewalID, ClientID: AcmeClientID, TermsVersion: CurrentTermsVersion, Status: AgreementSent, PDFPath: AcmeClientID + "/" + AcmeRenewalID + ".pdf", CreatedAt: baseTime.Add(96 * time.Hour)},
		{ID: GlobexAgreementID, ClientID: GlobexClientID, TermsVersion: CurrentTermsVersion, Status: AgreementSent, PDFPath: GlobexClientID + "/" + GlobexAgreementID + ".pdf", CreatedAt: baseTime.Add(24 * time.Hour)},
		{ID: InitechAgreementID, ClientID: InitechClientID, TermsVersion: CurrentTermsVersion, Status: AgreementDraft, CreatedAt: baseTime.Add(48 * time.Hour)},
		{ID: UmbrellaAgreementID, ClientID: UmbrellaClientID, TermsVersion: CurrentTermsVersion, Status: AgreementDraft, CreatedAt: baseTime.Add(72 * time.Hour)},
	}
}

// Users returns the user fixtures. Role and permissions are kept in step here,
// but nothing derives one from the other.
func Users() []User {
	return []User{
		{
			ID: MainOperatorID, Email: "operator@onboarding.test", Name: "Olivia Operator", Role: RoleOperator, IsActive: true,
			Permissions: []string{PermClientsRead, PermClientsWrite, PermAgreementsRead, PermAgreementsWrite, PermAgreementsSend},
		},
		{
			ID: AdminUserID, Email: "admin@onboarding.test", Name: "Adam Admin", Role: RoleAdmin, IsActive: true,
			Permissions: []string{PermClientsRead, PermClientsWrite, PermAgreementsRead, PermAgreementsWrite, PermAgreementsSend, PermUsersManage, PermAuditRead},
		},
		{
			ID: ViewerUserID, Email: "viewer@onboarding.test", Name: "Vera Viewer", Role: RoleViewer, IsActive: true,
			Permissions: []string{PermClientsRead, PermAgreementsRead},
		},
		{
			ID: InactiveUserID, Email: "former@onboarding.test", Name: "Ian Inactive", Role: RoleOperator, IsActive: false,
			Permissions: []string{PermClientsRead},
		},
	}
}

// UserByID looks up a user fixture
func UserByID(id string) (User, bool) {
	for _, u := range Users() {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// ClientByID looks up a client fixture
func ClientByID(id string) (Client, bool) {
	for _, c := range Clients() {
		if c.ID == id {
			return c, true
		}
	}
	return Client{}, false
}

// AgreementsForClient returns the agreements of one client
func AgreementsForClient(clientID string) []Agreement {
	var out []Agreement
	for _, a := range Agreements() {
		if a.ClientID == clientID {
			out = append(out, a)
		}
	}
	return out
}
