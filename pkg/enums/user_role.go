package enums

// UserRole is the numeric role the API attaches to a user.
type UserRole int

const (
	UserRoleCustomer UserRole = 0
	UserRoleAdmin    UserRole = 1
)

// String implements fmt.Stringer.
func (r UserRole) String() string {
	if r.IsAdmin() {
		return "Admin"
	}
	return "Customer"
}

// IsAdmin reports whether the role grants the admin dashboard.
func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin
}
