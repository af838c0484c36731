package models

import "github.com/golang-jwt/jwt/v5"

// Roles
const (
	RolePlayer    = "player"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

// UserClaims are issued by the external auth service and only verified here.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID      uint     `json:"user_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// ElevationClaims scope a short-lived admin token to one target user.
type ElevationClaims struct {
	jwt.RegisteredClaims
	ActorID      uint `json:"actor_id"`
	TargetUserID uint `json:"target_user_id"`
}
