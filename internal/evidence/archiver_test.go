package evidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	putKey  string
	putErr  error
	putBody int
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.putKey = *params.Key
	buf := make([]byte, 1024)
	n, _ := params.Body.Read(buf)
	f.putBody = n
	return &s3.PutObjectOutput{}, nil
}

func newTestArchiver(t *testing.T, s3Client S3API, bucket string) *Archiver {
	t.Helper()
	a := NewArchiver(s3Client, bucket, "https://evidence.example.com", 2*time.Second, slog.Default())
	a.now = func() time.Time { return time.Unix(1700000000, 0) }
	return a
}

func TestArchiveUploadsAndReturnsDurableURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		fmt.Fprint(w, "jpegbytes")
	}))
	defer srv.Close()

	s3c := &fakeS3{}
	a := newTestArchiver(t, s3c, "evidence")

	url := a.Archive(context.Background(), srv.URL+"/media/0", "+1 (604) 555-1234")
	assert.Equal(t, "16045551234_1700000000.jpg", s3c.putKey)
	assert.Equal(t, len("jpegbytes"), s3c.putBody)
	assert.Equal(t, "https://evidence.example.com/16045551234_1700000000.jpg", url)
}

func TestArchiveFallsBackOnFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	a := newTestArchiver(t, &fakeS3{}, "evidence")

	transient := srv.URL + "/media/0"
	assert.Equal(t, transient, a.Archive(context.Background(), transient, "+16045551234"))
}

func TestArchiveFallsBackOnUploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "jpegbytes")
	}))
	defer srv.Close()

	a := newTestArchiver(t, &fakeS3{putErr: errors.New("access denied")}, "evidence")

	transient := srv.URL + "/media/0"
	assert.Equal(t, transient, a.Archive(context.Background(), transient, "+16045551234"))
}

func TestArchiveDisabledWithoutBucket(t *testing.T) {
	a := NewArchiver(nil, "", "", 0, nil)
	require.False(t, a.Enabled())
	assert.Equal(t, "https://cdn.twilio.com/m0", a.Archive(context.Background(), "https://cdn.twilio.com/m0", "+16045551234"))
}
