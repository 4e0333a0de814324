package file

import (
	"strings"
	"time"
)

type (
	File struct {
		ID          string
		Name        string
		ContentType string
		Extension   string
		Size        int64
		CreatedAt   time.Time
		IsPublic    bool
		Owner       string
	}
	Files []*File
)

// DownloadName is the display name with the extension appended unless the
// name already carries it.
func (f *File) DownloadName() string {
	if f.Extension == "" || strings.HasSuffix(f.Name, "."+f.Extension) {
		return f.Name
	}
	return f.Name + "." + f.Extension
}
