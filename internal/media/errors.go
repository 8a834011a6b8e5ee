package media

import (
	"errors"
	"fmt"
)

var (
	ErrUpload          = errors.New("image upload failed")
	ErrInvalidFileType = errors.New("invalid file type, only JPEG, PNG, GIF and WebP images are allowed")
	ErrFileTooBig      = errors.New("image exceeds the configured size limit")
	ErrTooManyFiles    = errors.New("too many images in one request")
	ErrInvalidRemoteID = errors.New("invalid remote image id")
	ErrStoreNotReady   = errors.New("media bucket is not available")
)

// UploadError reports which file of a batch could not be bound. It matches
// both ErrUpload and the underlying cause under errors.Is.
type UploadError struct {
	Index    int
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("%s: %v", ErrUpload, e.Err)
	}
	return fmt.Sprintf("%s: image %d (%s): %v", ErrUpload, e.Index, e.Filename, e.Err)
}

func (e *UploadError) Unwrap() []error {
	return []error{ErrUpload, e.Err}
}

// Rejected reports whether the upload failed because of the input itself
// rather than the media backend.
func (e *UploadError) Rejected() bool {
	return errors.Is(e.Err, ErrInvalidFileType) || errors.Is(e.Err, ErrFileTooBig) || errors.Is(e.Err, ErrTooManyFiles)
}

// ReleaseFailure is a binding that stayed alive in the media store after the
// product stopped referencing it.
type ReleaseFailure struct {
	RemoteID string
	Err      error
}
