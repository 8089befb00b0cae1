package domain

// PendingIntent is a deferred sensitive action held by the step-up gate. It
// is a plain tagged value rather than a closure so it can be logged,
// inspected, and discarded without dragging captured state along.
type PendingIntent struct {
	Action string            `json:"action"`
	Params map[string]string `json:"params,omitempty"`
}

// ReauthState is the observable state of a session's step-up gate.
type ReauthState string

const (
	ReauthIdle      ReauthState = "idle"
	ReauthRequired  ReauthState = "required"
	ReauthVerifying ReauthState = "verifying"
	ReauthVerified  ReauthState = "verified"
)
