package types

import "time"

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents an account in the system.
// It contains identity, role, session, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int64 `json:"id" db:"id"`

	// Username is the unique login name chosen by the user,
	// stored lowercased and trimmed.
	Username string `json:"username" db:"username"`

	// FullName is the user's display name.
	FullName string `json:"fullName" db:"full_name"`

	// Email is the user's email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Avatar is an optional profile image reference.
	Avatar string `json:"avatar,omitempty" db:"avatar"`

	// Role indicates the user's authorization level ("user" or "admin").
	Role Role `json:"role" db:"role"`

	// Posts holds the IDs of posts owned by the user. It is maintained
	// on post creation and deletion.
	Posts []int64 `json:"posts" db:"posts"`

	// RefreshToken is the single active refresh token for the user.
	// Issuing a new one overwrites the previous value (last login wins).
	// Never exposed in API responses.
	RefreshToken string `json:"-" db:"refresh_token"`

	// ForgotPasswordToken holds the SHA-256 hash of the most recent
	// password reset token, if one is outstanding.
	ForgotPasswordToken *string `json:"-" db:"forgot_password_token"`

	// ForgotPasswordExpiry bounds the validity of ForgotPasswordToken.
	ForgotPasswordExpiry *time.Time `json:"-" db:"forgot_password_expiry"`

	// GoogleID links the account to an external identity, when present.
	GoogleID *string `json:"-" db:"google_id"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
