package auth

type (
	LoginRequest struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	LoginResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
)
