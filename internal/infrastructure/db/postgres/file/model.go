package file

import (
	"time"
)

type (
	File struct {
		ID          string
		Owner       string
		Name        string
		ContentType string
		Extension   string
		Size        int64
		IsPublic    bool

		CreatedAt time.Time
	}
	Files []*File
)
