package api

// TokenRequest is the payload for POST /v1/auth/token.
type TokenRequest struct {
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the response for POST /v1/auth/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
