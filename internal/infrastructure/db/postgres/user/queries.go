package user

const (
	SelectUsers = `
		SELECT name, password_hash, quota, max_files, is_admin, created_at
		FROM users
		ORDER BY name
	`
	InsertUser = `
		INSERT INTO users (name, password_hash, quota, max_files, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	UpdateUserByName = `
		UPDATE users
		SET password_hash = $2,
		    quota = $3,
		    max_files = $4,
		    is_admin = $5
		WHERE name = $1
	`
	DeleteUserFiles  = `DELETE FROM files WHERE owner = $1`
	DeleteUserByName = `DELETE FROM users WHERE name = $1`
)
