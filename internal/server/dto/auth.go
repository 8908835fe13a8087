// Package dto holds the request and response bodies of the HTTP API.
// Request types carry the validation schema of each flow as struct tags.
package dto

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

type RefreshTokenRequest struct {
	Token string `json:"token"`
}

type LogoutRequest struct {
	Token string `json:"token"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword" validate:"required,password"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
	ConfirmPassword string `json:"confirmPassword" label:"Confirm Password" validate:"required,eqfield=NewPassword"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ForgotPasswordChangeRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Otp             string `json:"otp" validate:"required,otp"`
	Password        string `json:"password" validate:"required,password"`
	ConfirmPassword string `json:"confirmPassword" label:"Confirm Password" validate:"required,eqfield=Password"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
