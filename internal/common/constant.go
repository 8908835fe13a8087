package common

const (
	// AuthorizationHeader carries "Bearer <access token>" on protected requests.
	AuthorizationHeader = "Authorization"

	// BearerScheme is the auth scheme accepted in AuthorizationHeader.
	BearerScheme = "Bearer"
)
