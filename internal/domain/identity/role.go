package identity

// Role is the authorization level of a session
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleReviewer Role = "revisor"
	RoleUser     Role = "usuario"
	RoleGuest    Role = "invitado"
)

// IsValid checks if the Role is a valid value
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleReviewer, RoleUser, RoleGuest:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// DisplayName returns the label shown next to the user name
func (r Role) DisplayName() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleReviewer:
		return "Revisor"
	case RoleUser:
		return "Usuario"
	default:
		return "Sin rol"
	}
}

// CanAdminister reports whether the role may edit, sanction and delete requests
func (r Role) CanAdminister() bool {
	return r == RoleAdmin
}

// CanReview reports whether the role may list and review requests
func (r Role) CanReview() bool {
	return r == RoleAdmin || r == RoleReviewer
}

// CanExport reports whether the role may preview and export request documents
func (r Role) CanExport() bool {
	return r.CanReview()
}

// AtLeast reports whether r grants every permission of other
func (r Role) AtLeast(other Role) bool {
	return r.rank() >= other.rank()
}

func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 3
	case RoleReviewer:
		return 2
	case RoleUser:
		return 1
	default:
		return 0
	}
}
