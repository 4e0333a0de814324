package user

import (
	"filedrive/internal/domain/user"
)

func ToResponseUser(uDomain user.User) User {
	var u = User{
		Name:           uDomain.Name,
		IsAdmin:        uDomain.IsAdmin,
		Quota:          uDomain.Quota,
		MaxFiles:       uDomain.MaxFiles,
		UsedBytes:      uDomain.UsedBytes,
		AvailableBytes: uDomain.AvailableBytes(),
		Files:          len(uDomain.Files),
		CreatedAt:      uDomain.CreatedAt,
	}

	return u
}

func ToResponseUsers(usDomain user.Users) Users {
	us := make(Users, len(usDomain))
	for idx, u := range usDomain {
		us[idx] = ToResponseUser(*u)
	}

	return us
}
