package auth

const (
	ACCESS_TOKEN_COOKIE_NAME  = "accessToken"
	REFRESH_TOKEN_COOKIE_NAME = "refreshToken"

	DefaultRedirectAfterLogin = "/"
)
