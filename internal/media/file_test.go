package media

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

var (
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	gifHeader  = []byte("GIF89a\x01\x00\x01\x00")
	jpegHeader = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	webpHeader = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
)

func TestPrepareImageSniffsAllowedTypes(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		ct   string
		ext  string
	}{
		{"png", pngHeader, "image/png", ".png"},
		{"gif", gifHeader, "image/gif", ".gif"},
		{"jpeg", jpegHeader, "image/jpeg", ".jpg"},
		{"webp", webpHeader, "image/webp", ".webp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img, err := PrepareImage(BytesFile("upload.bin", tc.data), 1024)
			if err != nil {
				t.Fatalf("prepare: %v", err)
			}
			if img.ContentType != tc.ct {
				t.Fatalf("content type: got %q want %q", img.ContentType, tc.ct)
			}
			if !strings.HasPrefix(img.Key, "products/") || !strings.HasSuffix(img.Key, tc.ext) {
				t.Fatalf("unexpected key %q", img.Key)
			}
			if !bytes.Equal(img.Data, tc.data) {
				t.Fatal("prepared data differs from input")
			}
		})
	}
}

func TestPrepareImageRejectsSpoofedAndOversizedContent(t *testing.T) {
	if _, err := PrepareImage(BytesFile("fake.png", []byte("<html>not an image</html>")), 1024); !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType, got %v", err)
	}
	if _, err := PrepareImage(BytesFile("empty.png", nil), 1024); !errors.Is(err, ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType for empty file, got %v", err)
	}

	big := append(append([]byte{}, pngHeader...), make([]byte, 64)...)
	if _, err := PrepareImage(BytesFile("big.png", big), 32); !errors.Is(err, ErrFileTooBig) {
		t.Fatalf("expected ErrFileTooBig from declared size, got %v", err)
	}

	lying := File{
		Name: "lying.png",
		Size: 1,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(big)), nil },
	}
	if _, err := PrepareImage(lying, 32); !errors.Is(err, ErrFileTooBig) {
		t.Fatalf("expected ErrFileTooBig from actual bytes, got %v", err)
	}
}

func TestPrepareImagePropagatesOpenError(t *testing.T) {
	boom := errors.New("disk gone")
	f := File{Name: "a.png", Open: func() (io.ReadCloser, error) { return nil, boom }}
	if _, err := PrepareImage(f, 10); !errors.Is(err, boom) {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestValidRemoteID(t *testing.T) {
	for _, id := range []string{"products/a.png", "products/x/y.jpg"} {
		if !validRemoteID(id) {
			t.Fatalf("expected %q valid", id)
		}
	}
	for _, id := range []string{"", "  ", "avatars/a.png", "products/../secret", "../products/a.png"} {
		if validRemoteID(id) {
			t.Fatalf("expected %q invalid", id)
		}
	}
	if got := publicURL("http://cdn.local/", "bucket", "products/a.png"); got != "http://cdn.local/bucket/products/a.png" {
		t.Fatalf("unexpected public url %q", got)
	}
}

func TestUploadErrorMatchesSentinelAndCause(t *testing.T) {
	err := error(&UploadError{Index: 2, Filename: "c.png", Err: ErrFileTooBig})
	if !errors.Is(err, ErrUpload) || !errors.Is(err, ErrFileTooBig) {
		t.Fatalf("expected both sentinels to match: %v", err)
	}
	var uerr *UploadError
	if !errors.As(err, &uerr) || uerr.Index != 2 || !uerr.Rejected() {
		t.Fatalf("unexpected upload error: %+v", uerr)
	}
	backend := &UploadError{Index: 0, Filename: "a.png", Err: errors.New("503")}
	if backend.Rejected() {
		t.Fatal("backend failure must not be reported as rejected input")
	}
}
