package file

import (
	"filedrive/internal/domain/file"
)

func ToResponseFile(fDomain file.File) File {
	var f = File{
		ID:           fDomain.ID,
		Name:         fDomain.Name,
		DownloadName: fDomain.DownloadName(),
		ContentType:  fDomain.ContentType,
		Extension:    fDomain.Extension,
		SizeBytes:    fDomain.Size,
		IsPublic:     fDomain.IsPublic,
		Owner:        fDomain.Owner,
		CreatedAt:    fDomain.CreatedAt,
	}

	return f
}

func ToResponseFiles(fsDomain file.Files) Files {
	fs := make(Files, len(fsDomain))
	for idx, f := range fsDomain {
		fs[idx] = ToResponseFile(*f)
	}

	return fs
}
