package models

// Result is the standard outcome of account operations that carry a
// user-facing message. User is populated with the looked-up record even
// on failure so callers can write audit logs; it must never be surfaced
// past the HTTP boundary.
type Result struct {
	Success bool
	Message string
	User    *User
}
