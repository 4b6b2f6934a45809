package users

import (
	"strconv"
	"time"
)

// User represents an account that authors posts, comments, likes and images.
// Accounts are owned by the identity service; this service only reads them
// to expand post authors.
type User struct {
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	DisplayName *string   `json:"displayName,omitempty"`
	AvatarURL   *string   `json:"avatar,omitempty"`
	Bio         *string   `json:"bio,omitempty"`
	Email       string    `json:"-"`
	Handle      string    `json:"handle"`
	ID          int64     `json:"id" gorm:"primaryKey"`
}

// TableName pins the gorm table for User.
func (User) TableName() string {
	return "users"
}

// Identity is the caller a request acts on behalf of.
// The zero value is the anonymous caller.
type Identity struct {
	UserID int64
	Admin  bool
}

// Anonymous is the identity used when no credentials were presented
var Anonymous = Identity{}

// IsAnonymous reports whether the identity carries no user
func (i Identity) IsAnonymous() bool {
	return i.UserID <= 0
}

// String renders the identity for logs
func (i Identity) String() string {
	if i.IsAnonymous() {
		return "anonymous"
	}
	s := "user:" + strconv.FormatInt(i.UserID, 10)
	if i.Admin {
		s += "(admin)"
	}
	return s
}

// ParseUserID coerces an externally supplied user reference into an id.
// Anything that is not a positive integer coerces to 0, which matches no user.
func ParseUserID(raw string) int64 {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
