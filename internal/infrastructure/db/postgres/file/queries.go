package file

const (
	SelectFiles = `
		SELECT id, owner, name, content_type, extension, size, is_public, created_at
		FROM files
		ORDER BY id
	`
	InsertFile = `
		INSERT INTO files (id, owner, name, content_type, extension, size, is_public, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	UpdateFileVisibility = `UPDATE files SET is_public = $2 WHERE id = $1`
	DeleteFileByID       = `DELETE FROM files WHERE id = $1`
)
