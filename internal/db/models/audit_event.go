package models

import (
	"fmt"
	"time"
)

// AuditAction is the kind of change an audit event records
type AuditAction int

// Audit actions
const (
	AuditActionUnknown AuditAction = iota
	AuditActionAgreementCreated
	AuditActionAgreementSent
	AuditActionAgreementSigned
)

var auditActionNames = []string{
	"unknown",
	"agreement_created",
	"agreement_sent",
	"agreement_signed",
}

func (a AuditAction) String() string {
	if int(a) < 0 || int(a) >= len(auditActionNames) {
		return auditActionNames[AuditActionUnknown]
	}
	return auditActionNames[a]
}

// ParseAuditAction converts a string to an AuditAction
func ParseAuditAction(str string) (AuditAction, error) {
	for i, name := range auditActionNames {
		if name == str {
			return AuditAction(i), nil
		}
	}
	return AuditActionUnknown, fmt.Errorf("invalid audit action: %s", str)
}

// AuditEvent records a change to an agreement. IDs are ULIDs so events sort by creation.
type AuditEvent struct {
	ID          string      `json:"id" gorm:"primaryKey;size:26"`
	AgreementID string      `json:"agreement_id" gorm:"not null;index;size:36"`
	ActorID     string      `json:"actor_id" gorm:"not null"`
	Action      AuditAction `json:"action" gorm:"not null"`
	Details     string      `json:"details"`
	CreatedAt   time.Time   `json:"created_at" gorm:"index"`
}
