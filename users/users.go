package users

import "encoding/json"

// RoleType is the user's role as reported by the remote API
type RoleType string

const (
	RoleMember RoleType = "member" // Regular studio user
	RoleAdmin  RoleType = "admin"  // Can curate assets and moderate the community
)

// User is the account returned by /auth/user and /auth/verify-otp.
// It is never persisted client-side; it is re-fetched on every start.
type User struct {
	ID      string   `json:"id" yaml:"id"`
	Email   string   `json:"email" yaml:"email"`
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Contact string   `json:"contact,omitempty" yaml:"contact,omitempty"`
	Role    RoleType `json:"role" yaml:"role"`
	Credits int      `json:"credits,omitempty" yaml:"credits,omitempty"`
}

// IsAdmin returns true if the user has the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Valid reports whether the user has the fields the session relies on
func (u *User) Valid() bool {
	return u != nil && u.ID != "" && u.Email != ""
}

// UnmarshalJSON accepts both "id" and the Mongo-style "_id" the API returns on some endpoints.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var wire struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*u = User(wire.plain)
	if u.ID == "" {
		u.ID = wire.MongoID
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	return nil
}
