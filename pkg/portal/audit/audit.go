// Package audit records security-relevant portal events through structured
// logging.
package audit

import (
	"context"
	"time"

	"github.com/clientgate/clientgate/pkg/kernel"
	"github.com/clientgate/clientgate/pkg/logx"
)

// LogxAuditService emits audit events as structured logx entries.
type LogxAuditService struct{}

func NewLogxAuditService() *LogxAuditService {
	return &LogxAuditService{}
}

func (s *LogxAuditService) LogChallengeIssued(_ context.Context, email string) {
	logx.WithFields(logx.Fields{
		"audit_event": "challenge_issued",
		"email":       email,
		"timestamp":   time.Now(),
	}).Info("Audit: login challenge issued")
}

func (s *LogxAuditService) LogChallengeVerification(_ context.Context, email string, success bool) {
	logx.WithFields(logx.Fields{
		"audit_event": "challenge_verification",
		"email":       email,
		"success":     success,
		"timestamp":   time.Now(),
	}).Info("Audit: challenge verification")
}

func (s *LogxAuditService) LogSessionOpened(_ context.Context, customerID kernel.CustomerID, sessionID kernel.SessionID) {
	logx.WithFields(logx.Fields{
		"audit_event": "session_opened",
		"customer_id": customerID,
		"session_id":  sessionID,
		"timestamp":   time.Now(),
	}).Info("Audit: session opened")
}

func (s *LogxAuditService) LogSessionRevoked(_ context.Context, customerID kernel.CustomerID, sessionID kernel.SessionID) {
	logx.WithFields(logx.Fields{
		"audit_event": "session_revoked",
		"customer_id": customerID,
		"session_id":  sessionID,
		"timestamp":   time.Now(),
	}).Info("Audit: session revoked")
}

func (s *LogxAuditService) LogCompanySelected(_ context.Context, customerID kernel.CustomerID, companyID kernel.CompanyID) {
	logx.WithFields(logx.Fields{
		"audit_event": "company_selected",
		"customer_id": customerID,
		"company_id":  companyID,
		"timestamp":   time.Now(),
	}).Info("Audit: active company selected")
}

func (s *LogxAuditService) LogProfileUpdated(_ context.Context, customerID kernel.CustomerID, fields []string) {
	logx.WithFields(logx.Fields{
		"audit_event": "profile_updated",
		"customer_id": customerID,
		"fields":      fields,
		"timestamp":   time.Now(),
	}).Info("Audit: profile updated")
}
