// File: internal/user/model.go
package user

import (
	"time"

	"lecture_companion_backend/internal/common"

	"github.com/google/uuid"
)

// ProviderGoogle is the provider name stored on Google external-login bindings.
const ProviderGoogle = "GOOGLE"

// User is the identity record. The email doubles as the login name.
type User struct {
	common.BaseModel
	UserName        string          `gorm:"type:varchar(256);not null;uniqueIndex"`
	NormalizedEmail string          `gorm:"type:varchar(256);not null;uniqueIndex"`
	Email           string          `gorm:"type:varchar(256);not null"`
	FullName        string          `gorm:"type:varchar(256)"`
	PasswordHash    *string         `gorm:"type:varchar(255)"` // nil for accounts created through an external provider
	Logins          []ExternalLogin `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// ExternalLogin binds a User to one provider identity. A (Provider, ProviderKey)
// pair belongs to at most one user.
type ExternalLogin struct {
	common.BaseModel
	UserID              uuid.UUID `gorm:"type:uuid;not null;index"`
	Provider            string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_external_logins_provider_key"`
	ProviderKey         string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_external_logins_provider_key"`
	ProviderDisplayName string    `gorm:"type:varchar(100)"`
}

func (ExternalLogin) TableName() string {
	return "external_logins"
}

// Models lists the tables owned by this package, in migration order.
func Models() []interface{} {
	return []interface{}{&User{}, &ExternalLogin{}}
}

// Profile carries the identity attributes a new account is created with.
type Profile struct {
	Email    string
	FullName string
}

// LoginInfo describes an external-login binding to add.
type LoginInfo struct {
	Provider            string
	ProviderKey         string
	ProviderDisplayName string
}

// --- DTOs ---

// LoginResponse is the public view of an external-login binding.
type LoginResponse struct {
	Provider            string `json:"provider"`
	ProviderDisplayName string `json:"providerDisplayName"`
}

// UserResponse is the public view of a User. It never carries credentials.
type UserResponse struct {
	ID          uuid.UUID       `json:"id"`
	UserName    string          `json:"userName"`
	Email       string          `json:"email"`
	FullName    string          `json:"fullName"`
	HasPassword bool            `json:"hasPassword"`
	Logins      []LoginResponse `json:"logins"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ToUserResponse converts a User model to a UserResponse DTO.
func ToUserResponse(u *User) UserResponse {
	logins := make([]LoginResponse, 0, len(u.Logins))
	for _, l := range u.Logins {
		logins = append(logins, LoginResponse{Provider: l.Provider, ProviderDisplayName: l.ProviderDisplayName})
	}
	return UserResponse{
		ID:          u.ID,
		UserName:    u.UserName,
		Email:       u.Email,
		FullName:    u.FullName,
		HasPassword: u.HasPassword(),
		Logins:      logins,
		CreatedAt:   u.CreatedAt,
	}
}
