package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID            string
	Email         string
	PasswordHash  []byte
	AuthFailCount int
	CreatedAt     time.Time
	Roles         []string
}

// HasRoles reports whether the user holds every role in required. The
// check is subset membership, not equality.
func (u *User) HasRoles(required ...string) bool {
	return subset(required, u.Roles)
}

// Identity projects the user into the principal attached to requests.
func (u *User) Identity() Identity {
	return Identity{Email: u.Email, Roles: u.Roles}
}

type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Identity is the authenticated principal attached to a request, whether
// it came from a session cookie or a bearer token.
type Identity struct {
	Email string
	Roles []string
}

func (id Identity) HasRoles(required ...string) bool {
	return subset(required, id.Roles)
}

func subset(required, held []string) bool {
	set := make(map[string]struct{}, len(held))
	for _, r := range held {
		set[r] = struct{}{}
	}
	for _, r := range required {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}
