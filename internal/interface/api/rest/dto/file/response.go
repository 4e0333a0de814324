package file

import (
	"time"
)

type (
	File struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		DownloadName string    `json:"download_name"`
		ContentType  string    `json:"content_type"`
		Extension    string    `json:"extension"`
		SizeBytes    int64     `json:"size_bytes"`
		IsPublic     bool      `json:"is_public"`
		Owner        string    `json:"owner"`
		CreatedAt    time.Time `json:"created_at"`
	}
	Files        []File
	ResponseData struct {
		Data Files `json:"data"`
	}
	VisibilityRequest struct {
		IsPublic *bool `json:"is_public"`
	}
)
