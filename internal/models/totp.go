package models

import (
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// GenerateTOTPSecret generates a TOTP secret for an identity enrolling
// in step-up authentication.
func GenerateTOTPSecret(identity, issuer string) (*otp.Key, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: identity,
	})
	return key, err
}

// VerifyTOTPCode verifies a TOTP code against a stored secret.
func VerifyTOTPCode(secret, code string) bool {
	return totp.Validate(code, secret)
}
