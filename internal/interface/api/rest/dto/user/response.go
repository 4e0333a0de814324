package user

import (
	"time"
)

type (
	User struct {
		Name           string    `json:"name"`
		IsAdmin        bool      `json:"is_admin"`
		Quota          int64     `json:"quota"`
		MaxFiles       int       `json:"max_files"`
		UsedBytes      int64     `json:"used_bytes"`
		AvailableBytes int64     `json:"available_bytes"`
		Files          int       `json:"files"`
		CreatedAt      time.Time `json:"created_at"`
	}
	Users        []User
	ResponseData struct {
		Data Users `json:"data"`
	}
)
