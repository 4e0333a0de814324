package file

// Incoming is an upload fully received into the tmp dir. Whoever is handed
// an Incoming owns TempPath and must either relocate or remove it.
type Incoming struct {
	TempPath     string
	Size         int64
	OriginalName string
	// DisplayName is the optional name typed by the uploader.
	DisplayName string
	ContentType string
}

type SortMode string

const (
	SortNameAsc    SortMode = "name-asc"
	SortNameDesc   SortMode = "name-desc"
	SortUploadAsc  SortMode = "upload-asc"
	SortUploadDesc SortMode = "upload-desc"
	SortSizeDesc   SortMode = "size-desc"
	SortSizeAsc    SortMode = "size-asc"

	DefaultSort = SortUploadAsc
)

func (m SortMode) Valid() bool {
	switch m {
	case SortNameAsc, SortNameDesc, SortUploadAsc, SortUploadDesc, SortSizeDesc, SortSizeAsc:
		return true
	}
	return false
}
