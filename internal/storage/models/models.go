package models

import "time"

// Account is one registered user. PasswordHash is a bcrypt hash and is never
// serialized.
type Account struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Age          int       `json:"age"`
	Weight       int       `json:"weight"`
	Height       int       `json:"height"`
	CreatedAt    time.Time `json:"created_at"`
}

// MedicalDocument is the metadata row for one uploaded file.
type MedicalDocument struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FileName  string    `json:"file_name"`
	FileType  string    `json:"file_type"`
	FilePath  string    `json:"-"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
