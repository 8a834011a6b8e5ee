package media

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

const objectKeyPrefix = "products"

// File is one image supplied by a client. Open may be called once per upload
// attempt.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// BytesFile wraps in-memory content as a File.
func BytesFile(name string, data []byte) File {
	return File{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Image is a validated upload ready to be written to an object store.
type Image struct {
	Key         string
	ContentType string
	Data        []byte
}

func (i *Image) Size() int64 { return int64(len(i.Data)) }

// PrepareImage reads at most maxBytes+1 bytes, rejects oversized content and
// sniffs the real content type from the bytes instead of trusting the client.
func PrepareImage(f File, maxBytes int64) (*Image, error) {
	if maxBytes > 0 && f.Size > maxBytes {
		return nil, ErrFileTooBig
	}
	if f.Open == nil {
		return nil, fmt.Errorf("open %q: no content", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", f.Name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if maxBytes > 0 {
		r = io.LimitReader(rc, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", f.Name, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, ErrFileTooBig
	}
	if len(data) == 0 {
		return nil, ErrInvalidFileType
	}

	contentType := strings.ToLower(http.DetectContentType(data))
	ext, ok := allowedContentTypes[contentType]
	if !ok {
		return nil, ErrInvalidFileType
	}
	return &Image{
		Key:         path.Join(objectKeyPrefix, uuid.NewString()+ext),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// validRemoteID guards release calls against keys outside the product prefix.
func validRemoteID(remoteID string) bool {
	remoteID = strings.TrimSpace(remoteID)
	if remoteID == "" || strings.Contains(remoteID, "..") {
		return false
	}
	return strings.HasPrefix(remoteID, objectKeyPrefix+"/")
}

func publicURL(base, bucket, key string) string {
	return strings.TrimRight(base, "/") + "/" + bucket + "/" + key
}
