package dto

import (
	"encoding/json"

	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
)

// Avatar is the validated view of an uploaded avatar file.
type Avatar struct {
	OriginalName string `json:"originalname" validate:"required,avatarext"`
	MimeType     string `json:"mimetype" validate:"required,avatarmime"`
	Size         int64  `json:"size" validate:"avatarsize"`
}

// AvatarOf returns the validation view of u, or nil when there is no upload.
func AvatarOf(u *models.Upload) *Avatar {
	if u == nil {
		return nil
	}
	return &Avatar{OriginalName: u.OriginalName, MimeType: u.MimeType, Size: u.Size}
}

// Status accepts both "1" and 1 in JSON bodies.
type Status string

func (s *Status) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Status(str)
		return nil
	}
	if string(b) == "null" {
		*s = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = Status(n.String())
	return nil
}

// CreateUserRequest is the body of POST /api/user and POST /api/signup.
type CreateUserRequest struct {
	Name            string  `json:"name" validate:"required,min=3,max=30"`
	Email           string  `json:"email" validate:"required,email"`
	Status          Status  `json:"status" validate:"omitempty,oneof=1 2"`
	Dob             string  `json:"dob" validate:"omitempty,dateonly,datemin=1970-01-01,datemax=2020-12-30"`
	Password        string  `json:"password" validate:"required,password"`
	ConfirmPassword string  `json:"confirmPassword" label:"Confirm Password" validate:"required,eqfield=Password"`
	Avatar          *Avatar `json:"-"`
}

// UpdateUserRequest is the body of PUT /api/user/{id}. Every field is
// optional, but at least one of name, email, status or dob must be set.
type UpdateUserRequest struct {
	Name   string  `json:"name" validate:"omitempty,min=3,max=30"`
	Email  string  `json:"email" validate:"omitempty,email"`
	Status Status  `json:"status" validate:"omitempty,oneof=1 2"`
	Dob    string  `json:"dob" validate:"omitempty,dateonly,datemin=1970-01-01,datemax=2020-12-30"`
	Avatar *Avatar `json:"-"`
}

// User is the client view of a user row. The id is the encrypted token.
type User struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Dob    *string `json:"dob"`
	Avatar *string `json:"avatar"`
	Status int16   `json:"status"`
}
