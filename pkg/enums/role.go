package enums

// Role is the actor role carried in access tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var roles = []Role{RoleUser, RoleAdmin}

func (r Role) String() string { return string(r) }

func (r Role) IsValid() bool { return oneOf(r, roles) }

// ParseRole ignores case; the identity provider emits "ADMIN".
func ParseRole(value string) (Role, error) {
	return parse("role", value, roles, true)
}
