package domain

// TOTPSetup is returned when a user begins 2FA setup. Nothing is persisted
// at this point; the secret only sticks once the user proves possession by
// submitting a valid code.
type TOTPSetup struct {
	Secret     string `json:"secret"`      // base32 shared secret
	OTPAuthURL string `json:"otpauth_url"` // otpauth:// provisioning URL for QR rendering
}

// MigrationReport describes the outcome of a migration run.
type MigrationReport struct {
	Applied []string
	Skipped []string
}
