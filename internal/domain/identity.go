package domain

type Role string

const (
	RoleStudent Role = "student"
	RoleAlumni  Role = "alumni"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAlumni
}

// Opposite returns the only role r is allowed to message.
func (r Role) Opposite() Role {
	if r == RoleStudent {
		return RoleAlumni
	}
	return RoleStudent
}

// Identity is owned by the auth service; messaging only reads it.
type Identity struct {
	ID         string  `db:"id"`
	FirstName  string  `db:"first_name"`
	LastName   string  `db:"last_name"`
	Role       Role    `db:"role"`
	AvatarURL  *string `db:"avatar_url"`
	Batch      *string `db:"batch"`
	Department *string `db:"department"`
	IsActive   bool    `db:"is_active"`
}
