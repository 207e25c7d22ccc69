package portalapi

import "time"

type requestChallengeDTO struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyChallengeDTO struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type exchangeDTO struct {
	ExchangeToken string `json:"exchange_token" validate:"required"`
}

type selectCompanyDTO struct {
	CompanyID string `json:"company_id" validate:"required"`
}

type updateProfileDTO struct {
	// Every field is optional; anything outside the editable set is dropped
	// before it reaches the directory.
	Fields map[string]string `json:"fields" validate:"required"`
}

type challengeIssuedResponse struct {
	Message          string `json:"message"`
	Email            string `json:"email"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

type verifiedResponse struct {
	ExchangeToken    string `json:"exchange_token"`
	SessionHint      string `json:"session_hint"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

type grantResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresAt   time.Time        `json:"expires_at"`
	Identity    identityResponse `json:"identity"`
	Profile     any              `json:"profile,omitempty"`
}

type identityResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type sessionResponse struct {
	State         string `json:"state"`
	CustomerID    string `json:"customer_id,omitempty"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Source        string `json:"source,omitempty"`
	ActiveCompany string `json:"active_company,omitempty"`
}
