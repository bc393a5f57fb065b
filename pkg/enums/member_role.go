package enums

import "fmt"

// MemberRole is a user's role within a company.
type MemberRole string

const (
	MemberRoleSuperAdmin MemberRole = "super_admin"
	MemberRoleAdmin      MemberRole = "admin"
	MemberRoleMember     MemberRole = "member"
)

var validMemberRoles = []MemberRole{
	MemberRoleSuperAdmin,
	MemberRoleAdmin,
	MemberRoleMember,
}

// String implements fmt.Stringer.
func (m MemberRole) String() string {
	return string(m)
}

// IsValid reports whether the value is known.
func (m MemberRole) IsValid() bool {
	for _, candidate := range validMemberRoles {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMemberRole converts raw input into a MemberRole.
func ParseMemberRole(value string) (MemberRole, error) {
	for _, candidate := range validMemberRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member role %q", value)
}
