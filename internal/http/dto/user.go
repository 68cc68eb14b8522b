package dto

// Request
type (
	RegisterRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
)

// Response
type (
	RegisterResponse struct {
		UserID int64  `json:"user_id"`
		Email  string `json:"email"`
	}

	LoginResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
)
