package media

import "time"

// Meeting is a zoom meeting attached to a section module.
type Meeting struct {
	ID              string     `json:"id"`
	SectionModuleID string     `json:"section_module_id"`
	ZoomMeetingID   string     `json:"zoom_meeting_id"`
	Topic           string     `json:"topic"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	Duration        *int       `json:"duration,omitempty"` // minutes
	JoinURL         string     `json:"join_url"`
	StartURL        string     `json:"start_url"`
	Password        *string    `json:"password,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type MeetingRequest struct {
	SectionModuleID string     `json:"section_module_id,omitempty"`
	Topic           string     `json:"topic,omitempty" validate:"notblank"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	Duration        *int       `json:"duration,omitempty" validate:"omitempty,gt=0"`
	Password        *string    `json:"password,omitempty"`
}

type Recording struct {
	ID                 string     `json:"id"`
	ZoomMeetingID      string     `json:"zoom_meeting_id"`
	FileID             string     `json:"file_id"`
	RecordingType      *string    `json:"recording_type,omitempty"`
	RecordingStartTime *time.Time `json:"recording_start_time,omitempty"`
	RecordingEndTime   *time.Time `json:"recording_end_time,omitempty"`
	FileSize           *int64     `json:"file_size,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type RecordingRequest struct {
	ZoomMeetingID      string     `json:"zoom_meeting_id,omitempty" validate:"notblank"`
	FileID             string     `json:"file_id,omitempty" validate:"notblank"`
	RecordingType      *string    `json:"recording_type,omitempty"`
	RecordingStartTime *time.Time `json:"recording_start_time,omitempty"`
	RecordingEndTime   *time.Time `json:"recording_end_time,omitempty"`
	FileSize           *int64     `json:"file_size,omitempty"`
}

// File is object-storage metadata as reported by the files service.
type File struct {
	ID               string     `json:"id"`
	OriginalFilename string     `json:"original_filename"`
	StoredFilename   string     `json:"stored_filename"`
	BucketName       string     `json:"bucket_name"`
	MimeType         string     `json:"mime_type"`
	SizeBytes        int64      `json:"size_bytes"`
	UploadedBy       string     `json:"uploaded_by"`
	Tags             []string   `json:"tags"`
	DownloadURL      string     `json:"download_url,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

type FileList struct {
	Files []File `json:"files"`
	Total int    `json:"total"`
}
