package api

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-lms-client/internal/cache"
	"github.com/jrsteele09/go-lms-client/internal/validation"
	"github.com/jrsteele09/go-lms-client/media"
)

const (
	PathZoomMeetings   = "/api/v1/zoom/meetings"
	PathZoomRecordings = "/api/v1/zoom/recordings"
	PathFiles          = "/api/v1/files"
	PathBuckets        = "/api/v1/buckets"
)

func (c *Client) GetMeeting(ctx context.Context, id string) (*media.Meeting, error) {
	var out media.Meeting
	if err := c.get(ctx, PathZoomMeetings+"/"+pathID(id), nil, &out, cache.Item(cache.TagZoomMeeting, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

// MeetingByModule returns the meeting attached to a section module.
func (c *Client) MeetingByModule(ctx context.Context, moduleID string) (*media.Meeting, error) {
	var out media.Meeting
	tags := []cache.Tag{cache.Item(cache.TagZoomMeeting, "MODULE-"+moduleID), cache.Item(cache.TagSectionModule, moduleID)}
	if err := c.get(ctx, PathZoomMeetings+"/module/"+pathID(moduleID), nil, &out, tags...); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateMeeting(ctx context.Context, in media.MeetingRequest) (*media.Meeting, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out media.Meeting
	err := c.mutate(ctx, http.MethodPost, PathZoomMeetings, in, &out,
		cache.Item(cache.TagZoomMeeting, "MODULE-"+in.SectionModuleID), cache.Item(cache.TagSectionModule, in.SectionModuleID))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMeeting(ctx context.Context, id string, in media.MeetingRequest) (*media.Meeting, error) {
	var out media.Meeting
	if err := c.mutate(ctx, http.MethodPut, PathZoomMeetings+"/"+pathID(id), in, &out, cache.Item(cache.TagZoomMeeting, id)); err != nil {
		return nil, err
	}
	c.cache.Invalidate(cache.Item(cache.TagZoomMeeting, "MODULE-"+out.SectionModuleID))
	return &out, nil
}

func (c *Client) DeleteMeeting(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, PathZoomMeetings+"/"+pathID(id), nil, nil, cache.List(cache.TagZoomMeeting))
}

func (c *Client) GetRecording(ctx context.Context, id string) (*media.Recording, error) {
	var out media.Recording
	if err := c.get(ctx, PathZoomRecordings+"/"+pathID(id), nil, &out, cache.Item(cache.TagZoomRecording, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RecordingsByMeeting(ctx context.Context, meetingID string) ([]media.Recording, error) {
	var out []media.Recording
	tags := []cache.Tag{cache.List(cache.TagZoomRecording), cache.Item(cache.TagZoomMeeting, meetingID)}
	if err := c.get(ctx, PathZoomRecordings+"/meeting/"+pathID(meetingID), nil, &out, tags...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRecording(ctx context.Context, in media.RecordingRequest) (*media.Recording, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out media.Recording
	if err := c.mutate(ctx, http.MethodPost, PathZoomRecordings, in, &out, cache.List(cache.TagZoomRecording)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRecording(ctx context.Context, id string, in media.RecordingRequest) (*media.Recording, error) {
	var out media.Recording
	if err := c.mutate(ctx, http.MethodPut, PathZoomRecordings+"/"+pathID(id), in, &out, cache.Item(cache.TagZoomRecording, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRecording(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, PathZoomRecordings+"/"+pathID(id), nil, nil, cache.Item(cache.TagZoomRecording, id))
}

func (c *Client) ListFiles(ctx context.Context, q FileQuery) (*media.FileList, error) {
	if err := validation.Struct(q); err != nil {
		return nil, err
	}
	var out media.FileList
	if err := c.get(ctx, PathFiles, q.values(), &out, cache.List(cache.TagFile)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetFile(ctx context.Context, id string) (*media.File, error) {
	var out media.File
	if err := c.get(ctx, PathFiles+"/"+pathID(id), nil, &out, cache.Item(cache.TagFile, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteFile(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, PathFiles+"/"+pathID(id), nil, nil, cache.Item(cache.TagFile, id))
}

// Upload describes a multipart file upload.
type Upload struct {
	Filename   string
	Content    io.Reader
	BucketName string
	Tags       []string
}

// UploadFile posts the file as multipart/form-data. The body is streamed, so an
// expired token is refreshed for later calls but this request is not replayed.
func (c *Client) UploadFile(ctx context.Context, up Upload) (*media.File, error) {
	if strings.TrimSpace(up.Filename) == "" || up.Content == nil {
		return nil, fmt.Errorf("upload needs a filename and content")
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUpload(form, up))
	}()

	var out media.File
	_, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        PathFiles,
		raw:         pr,
		contentType: form.FormDataContentType(),
	}, &out)
	pr.Close()
	if err != nil {
		return nil, err
	}
	c.cache.Invalidate(cache.List(cache.TagFile))
	return &out, nil
}

func writeUpload(form *multipart.Writer, up Upload) error {
	part, err := form.CreateFormFile("file", up.Filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, up.Content); err != nil {
		return err
	}
	if up.BucketName != "" {
		if err := form.WriteField("bucket_name", up.BucketName); err != nil {
			return err
		}
	}
	if len(up.Tags) > 0 {
		if err := form.WriteField("tags", strings.Join(up.Tags, ",")); err != nil {
			return err
		}
	}
	return form.Close()
}

// FileDownloadURL is the direct download address of a stored file.
func (c *Client) FileDownloadURL(bucket, fileID string) string {
	return c.baseURL + PathBuckets + "/" + pathID(bucket) + "/files/" + pathID(fileID) + "/download"
}

// DownloadFile streams a stored file into w and returns the server-suggested
// filename, if any.
func (c *Client) DownloadFile(ctx context.Context, bucket, fileID string, w io.Writer) (string, error) {
	path := PathBuckets + "/" + pathID(bucket) + "/files/" + pathID(fileID) + "/download"
	resp, err := c.send(ctx, request{method: http.MethodGet, path: path, accept: "application/octet-stream"})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return "", fmt.Errorf("download %s: %w", fileID, err)
	}
	filename := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		filename = params["filename"]
	}
	return filename, nil
}
