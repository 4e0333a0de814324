package user

import (
	domain "filedrive/internal/domain/user"
)

func fromDBModel(model *User) *domain.User {
	return &domain.User{
		Name:         model.Name,
		PasswordHash: model.PasswordHash,
		Quota:        model.Quota,
		MaxFiles:     int(model.MaxFiles),
		IsAdmin:      model.IsAdmin,

		CreatedAt: model.CreatedAt.UTC(),
	}
}

func fromDBModels(models *Users) domain.Users {
	us := make(domain.Users, len(*models))
	for idx, u := range *models {
		us[idx] = fromDBModel(u)
	}

	return us
}
