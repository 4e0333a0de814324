package file

import (
	domain "filedrive/internal/domain/file"
)

func fromDBModel(model *File) *domain.File {
	return &domain.File{
		ID:          model.ID,
		Owner:       model.Owner,
		Name:        model.Name,
		ContentType: model.ContentType,
		Extension:   model.Extension,
		Size:        model.Size,
		IsPublic:    model.IsPublic,

		CreatedAt: model.CreatedAt.UTC(),
	}
}

func fromDBModels(models *Files) domain.Files {
	fs := make(domain.Files, len(*models))
	for idx, f := range *models {
		fs[idx] = fromDBModel(f)
	}

	return fs
}
