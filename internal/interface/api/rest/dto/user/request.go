package user

type (
	Request struct {
		Name            string `json:"name"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
	}
	LimitsRequest struct {
		Quota    *int64 `json:"quota"`
		MaxFiles *int   `json:"max_files"`
	}
	AdminRequest struct {
		IsAdmin *bool `json:"is_admin"`
	}
	PasswordRequest struct {
		CurrentPassword    string `json:"current_password"`
		NewPassword        string `json:"new_password"`
		NewPasswordConfirm string `json:"new_password_confirm"`
	}
)
