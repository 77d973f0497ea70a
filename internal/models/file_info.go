package models

import "time"

// FileInfo represents metadata about an uploaded report image spooled on disk.
type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MediaType  string    `json:"mediaType"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}
