// Package staff implements the staff directory API: user records, JWT
// bearer-token issuance and verification, credential checks, and the
// projection rules that decide which user fields leave the service.
//
// The HTTP surface lives in http_controller.go; the per-request token
// gate lives in middleware/jwtware. Everything that touches a password
// hash goes through bcrypt.go and user_provider.go, nothing else reads
// that column.
package staff
