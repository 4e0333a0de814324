package user

import (
	"time"
)

type (
	User struct {
		Name         string
		PasswordHash string
		Quota        int64
		MaxFiles     int
		IsAdmin      bool

		CreatedAt time.Time

		// derived from the file registry, never persisted
		UsedBytes int64
		Files     []string
	}
	Users []*User
)

// AvailableBytes never goes below zero, even for grandfathered overage.
func (u *User) AvailableBytes() int64 {
	if u.UsedBytes >= u.Quota {
		return 0
	}
	return u.Quota - u.UsedBytes
}

const RootName = "root"

func (u *User) IsRoot() bool { return u.Name == RootName }

// Limits are the admin-controlled capacity settings of an account.
type Limits struct {
	Quota    int64
	MaxFiles int
}
