package models

import "time"

// UserStatus is the account state stored in users.status.
type UserStatus int16

const (
	UserStatusActive   UserStatus = 1
	UserStatusInactive UserStatus = 2
)

// DateLayout is the wire and storage layout of a date of birth.
const DateLayout = "2006-01-02"

// User is a row of the users table. Password holds the bcrypt hash and is
// empty when a query does not select it.
type User struct {
	ID        int64
	Name      string
	Email     string
	Password  string
	Dob       *time.Time
	Avatar    *string
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserPatch lists the columns to change in an update; nil fields are left
// as they are.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
	Dob      *time.Time
	Avatar   *string
	Status   *UserStatus
}

// Empty reports whether the patch changes nothing.
func (p *UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil &&
		p.Dob == nil && p.Avatar == nil && p.Status == nil
}
