package model

import "time"

// File is an uploaded blob. Filename is generated on upload and is the public
// handle used for download.
type File struct {
	ID           string    `json:"id" db:"id"`
	OwnerID      string    `json:"ownerId" db:"owner_id"`
	OriginalName string    `json:"originalName" db:"original_name"`
	Filename     string    `json:"filename" db:"filename"`
	MimeType     string    `json:"mimeType" db:"mime_type"`
	Size         int64     `json:"size" db:"size"`
	UploadedAt   time.Time `json:"uploadedAt" db:"uploaded_at"`
}
