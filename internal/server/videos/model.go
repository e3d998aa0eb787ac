package videos

import "time"

// Upload lifecycle. A video is created in StatusUploading when the client
// receives its presigned PUT URL and becomes streamable only after the
// client confirms the upload.
const (
	StatusUploading = "UPLOADING"
	StatusReady     = "READY"
)

type Video struct {
	ID          int64
	OwnerID     int64
	Title       string
	Description string
	StorageKey  string
	ContentType string
	SizeBytes   int64
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
