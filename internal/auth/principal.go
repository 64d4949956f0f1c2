package auth

// Role discriminates the two principal variants.
type Role string

const (
	RoleDealer Role = "dealer"
	RoleAdmin  Role = "admin"
)

// Valid reports whether the role is one the portal knows.
func (r Role) Valid() bool {
	return r == RoleDealer || r == RoleAdmin
}

// Principal is the session subject: a (role, id, email) projection of a
// dealer or admin record. The credential subsystem never holds the full
// record, which keeps the codec decoupled from storage.
type Principal struct {
	Role           Role
	ID             int64
	Email          string
	Name           string
	CustomerNumber string
	Active         bool
}

// RequireAdmin narrows to the admin role. Failing this is a "wrong role"
// condition, not a "not authenticated" one.
func (p Principal) RequireAdmin() error {
	if p.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// RequireDealer narrows to the dealer role.
func (p Principal) RequireDealer() error {
	if p.Role != RoleDealer {
		return ErrForbidden
	}
	return nil
}
