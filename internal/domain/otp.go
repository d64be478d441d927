package domain

import (
	"strings"
	"time"
)

// OTP purposes.
const (
	OTPPurposeSignup = "signup"
)

// OTP is a single issued one-time code. Several records may exist per email;
// lookups go through the email_purpose GSI.
type OTP struct {
	OTPID        string    `json:"id" dynamodbav:"otp_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	Purpose      string    `json:"purpose" dynamodbav:"purpose"`
	EmailPurpose string    `json:"-" dynamodbav:"email_purpose"`
	Code         string    `json:"-" dynamodbav:"code"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
	ExpiresAt    time.Time `json:"expires_at" dynamodbav:"expires_at"`
	IsUsed       bool      `json:"is_used" dynamodbav:"is_used"`
	Attempts     int       `json:"attempts" dynamodbav:"attempts"`
	PurgeAt      int64     `json:"-" dynamodbav:"purge_at"` // DynamoDB TTL (Unix seconds)
}

// IsValid reports whether the record can still be consumed at now.
func (o *OTP) IsValid(now time.Time, maxAttempts int) bool {
	return !o.IsUsed && now.Before(o.ExpiresAt) && o.Attempts < maxAttempts
}

// EmailPurposeKey builds the partition value of the email_purpose GSI.
func EmailPurposeKey(email, purpose string) string {
	return NormalizeEmail(email) + "#" + purpose
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type IssueOTPRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Purpose     string `json:"purpose" validate:"required,alphanum,max=32"`
	DisplayName string `json:"name" validate:"max=120"`
}

type VerifyOTPRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Code    string `json:"code" validate:"required,numeric"`
	Purpose string `json:"purpose" validate:"required,alphanum,max=32"`
}
