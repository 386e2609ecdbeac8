package redis

import "time"

// OTPChallenge is the pending one-time-code state kept in Redis under
// otp:<identifier> while a sign-in is in progress. The code itself is never
// stored, only its bcrypt hash. Profile metadata travels with the challenge
// so a first-time user can be created on verification.
type OTPChallenge struct {
	CodeHash  string    `json:"code_hash"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}
