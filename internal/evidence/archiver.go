// Package evidence archives customer-sent job site photos to durable storage.
package evidence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by the Archiver.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var nonDigits = regexp.MustCompile(`\D`)

// Archiver downloads inbound MMS media from Twilio's transient CDN and
// re-uploads it to S3 so the photo survives past Twilio's retention window.
type Archiver struct {
	s3Client      S3API
	bucket        string
	publicBaseURL string
	httpClient    *http.Client
	logger        *slog.Logger
	now           func() time.Time
}

// NewArchiver creates an evidence Archiver. If bucket is empty, archival is
// disabled and Archive always returns the transient URL.
func NewArchiver(s3Client S3API, bucket, publicBaseURL string, fetchTimeout time.Duration, logger *slog.Logger) *Archiver {
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		s3Client:      s3Client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		httpClient:    &http.Client{Timeout: fetchTimeout},
		logger:        logger,
		now:           time.Now,
	}
}

// Enabled reports whether archival is configured.
func (a *Archiver) Enabled() bool {
	return a != nil && a.bucket != "" && a.s3Client != nil
}

// Archive copies the media at mediaURL into the evidence bucket and returns
// a durable URL for it. Any failure falls back to the transient URL so the
// AI responder still sees the photo; losing the archive copy is not worth
// dropping the message.
func (a *Archiver) Archive(ctx context.Context, mediaURL, fromPhone string) string {
	if !a.Enabled() {
		return mediaURL
	}

	data, contentType, err := a.fetch(ctx, mediaURL)
	if err != nil {
		a.logger.Warn("evidence media fetch failed, keeping transient url", "error", err)
		return mediaURL
	}

	key := fmt.Sprintf("%s_%d.jpg", nonDigits.ReplaceAllString(fromPhone, ""), a.now().UTC().Unix())

	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		a.logger.Warn("evidence upload failed, keeping transient url", "key", key, "error", err)
		return mediaURL
	}

	a.logger.Info("archived evidence photo", "key", key, "bytes", len(data))
	return a.publicURL(key)
}

func (a *Archiver) fetch(ctx context.Context, mediaURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("evidence: build request: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("evidence: fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("evidence: fetch media: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("evidence: read media: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}

func (a *Archiver) publicURL(key string) string {
	if a.publicBaseURL != "" {
		return a.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", a.bucket, key)
}
