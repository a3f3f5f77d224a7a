package domain

type Role string

const (
	RolePublic Role = "public"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// Roles lists every assignable role.
var Roles = []Role{RolePublic, RoleSeller, RoleAdmin}

func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

type User struct {
	ID       string `db:"id"`
	Email    string `db:"email"`
	FullName string `db:"full_name"`
	Hash     string `db:"password_hash"`
	Roles    []Role `db:"-"`
}

func (u *User) HasRole(r Role) bool {
	if u == nil {
		return false
	}
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// CanSell reports whether u may manage listings and post comments.
func (u *User) CanSell() bool { return u.HasRole(RoleSeller) || u.HasRole(RoleAdmin) }

// DisplayName falls back from the full name to the email, then to "Seller".
func DisplayName(fullName, email string) string {
	switch {
	case fullName != "":
		return fullName
	case email != "":
		return email
	default:
		return "Seller"
	}
}

func (u *User) DisplayName() string { return DisplayName(u.FullName, u.Email) }

// UserWithRoles is a profile row as listed on the admin dashboard.
type UserWithRoles struct {
	ID       string
	Email    string
	FullName string
	Roles    []Role
}

func (u UserWithRoles) Has(r string) bool {
	for _, have := range u.Roles {
		if string(have) == r {
			return true
		}
	}
	return false
}
