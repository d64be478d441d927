package domain

// Role names carried in JWT claims.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
