package user

import (
	"time"
)

type (
	User struct {
		Name         string
		PasswordHash string
		Quota        int64
		MaxFiles     int64
		IsAdmin      bool

		CreatedAt time.Time
	}
	Users []*User
)
