package models

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

type User struct {
	ID            int        `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"` // Never expose in JSON
	Username      *string    `json:"username,omitempty"`
	Bio           *string    `json:"bio,omitempty"`
	AvatarURL     *string    `json:"avatar_url,omitempty"`
	HomeRegionID  *int       `json:"home_region_id,omitempty"`
	Languages     []string   `json:"languages"`
	Role          Role       `json:"role"`
	EmailVerified bool       `json:"email_verified"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

// UserPublic is the public-safe representation of a user
type UserPublic struct {
	ID        int       `json:"id"`
	Username  *string   `json:"username,omitempty"`
	Bio       *string   `json:"bio,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts a User to its public representation
func (u *User) ToPublic() *UserPublic {
	return &UserPublic{
		ID:        u.ID,
		Username:  u.Username,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

// IsAdmin checks if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsModerator checks if the user has moderator role or higher
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator || u.Role == RoleAdmin
}

// RegisterRequest is the request body for user registration
type RegisterRequest struct {
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	Username     *string  `json:"username,omitempty"`
	HomeRegionID *int     `json:"home_region_id,omitempty"`
	Languages    []string `json:"languages,omitempty"`
}

// LoginRequest is the request body for user login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned after successful authentication
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// UpdateUserRequest is the request body for updating a user profile
type UpdateUserRequest struct {
	Username     *string   `json:"username,omitempty"`
	Bio          *string   `json:"bio,omitempty"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	HomeRegionID *int      `json:"home_region_id,omitempty"`
	Languages    *[]string `json:"languages,omitempty"`
}

// ChangePasswordRequest is the request body for changing a password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UserStats holds aggregate activity counts for a user profile page
type UserStats struct {
	PointsAdded    int `json:"points_added"`
	ReviewsWritten int `json:"reviews_written"`
	EventsHosted   int `json:"events_hosted"`
	MapsCreated    int `json:"maps_created"`
}

// ServiceStats holds the site-wide counts shown on the admin dashboard
type ServiceStats struct {
	Users         int `json:"users"`
	Regions       int `json:"regions"`
	Points        int `json:"points"`
	PendingPoints int `json:"pending_points"`
	Reviews       int `json:"reviews"`
	Maps          int `json:"maps"`
	Events        int `json:"events"`
	PendingEvents int `json:"pending_events"`
	RSVPs         int `json:"rsvps"`
}

// AdminCreateUserRequest is the request body for admin user creation
type AdminCreateUserRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Username *string `json:"username,omitempty"`
	Role     Role    `json:"role"`
}

// AdminUpdateUserRequest is the request body for admin user updates
type AdminUpdateUserRequest struct {
	Email         *string `json:"email,omitempty"`
	Username      *string `json:"username,omitempty"`
	Role          *Role   `json:"role,omitempty"`
	EmailVerified *bool   `json:"email_verified,omitempty"`
	Password      *string `json:"password,omitempty"`
}

// UserListParams contains parameters for listing users (admin)
type UserListParams struct {
	Limit  int
	Offset int
	Search string
	Role   string
}
