package model

// Department is an organizational unit that owns tasks. Tasks reference
// departments by Name only.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Role determines what a user may see and do in the front ends.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// User is the authenticated principal of a session.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Department  string `json:"department"`
	Role        Role   `json:"role"`
}

// CanViewAllDepartments reports whether the user sees tasks beyond their
// own department.
func (u User) CanViewAllDepartments() bool {
	return u.Role == RoleAdmin
}
