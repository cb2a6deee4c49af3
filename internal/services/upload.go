package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/ibup/internal/models"
	"github.com/desertthunder/ibup/internal/shared"
)

// TrackIDPattern is the template of an upload success message.
// The protocol has no structured track id, so [ParseTrackID] is the only place that reads it.
var TrackIDPattern = regexp.MustCompile(`^File .* \((?P<trackid>\d+)\) uploaded successfully and is being processed.`)

// ParseTrackID extracts the track id from an upload success message.
//
// A message that does not match [TrackIDPattern] returns an error wrapping
// [shared.ErrMessageFormat], which means the protocol has drifted.
func ParseTrackID(message string) (int64, error) {
	m := TrackIDPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, fmt.Errorf("%w: %q does not match %s", shared.ErrMessageFormat, message, TrackIDPattern.String())
	}

	id, err := strconv.ParseInt(m[TrackIDPattern.SubexpIndex("trackid")], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrMessageFormat, err)
	}
	return id, nil
}

// RemoteFingerprints fetches the md5 of every file already in the library.
func (c *Client) RemoteFingerprints(ctx context.Context, sess Session) (models.FingerprintSet, error) {
	if !sess.Valid() {
		return nil, shared.ErrNotAuthenticated
	}

	form := url.Values{}
	form.Set("user_id", sess.UserID.String())
	form.Set("token", sess.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(req, true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch remote fingerprints: %w", err)
	}

	var reply struct {
		MD5 *[]string `json:"md5"`
	}
	if err := decode(resp, &reply); err != nil {
		return nil, err
	}
	if reply.MD5 == nil {
		return nil, fmt.Errorf("%w: no md5 list in response", shared.ErrMalformedBody)
	}

	return models.NewFingerprintSet(*reply.MD5...), nil
}

// UploadFile streams content to the upload surface as a multipart form.
//
// The "result" flag is not checked: callers inspect [Response.OK] so a
// rejected upload keeps its raw body. Only transport and status failures
// are returned as errors.
func (c *Client) UploadFile(ctx context.Context, sess Session, path string, content io.Reader) (*Response, error) {
	if !sess.Valid() {
		return nil, shared.ErrNotAuthenticated
	}

	body, contentType, size, err := c.multipartBody(sess, path, content)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = size

	return c.do(req, false)
}

// multipartBody builds the form around content without buffering it.
// The returned size is -1 when the length of content cannot be known up front.
func (c *Client) multipartBody(sess Session, path string, content io.Reader) (io.Reader, string, int64, error) {
	var head bytes.Buffer
	mw := multipart.NewWriter(&head)

	fields := [][2]string{
		{"file_path", path},
		{"method", c.identity.Client},
		{"user_id", sess.UserID.String()},
		{"token", sess.Token},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", 0, fmt.Errorf("failed to write form field %s: %w", f[0], err)
		}
	}
	if _, err := mw.CreateFormFile("file", filepath.Base(path)); err != nil {
		return nil, "", 0, fmt.Errorf("failed to create form file: %w", err)
	}

	tail := "\r\n--" + mw.Boundary() + "--\r\n"

	size := int64(-1)
	if n, ok := contentLength(content); ok {
		size = int64(head.Len()) + n + int64(len(tail))
	}

	return io.MultiReader(&head, content, strings.NewReader(tail)), mw.FormDataContentType(), size, nil
}

func contentLength(r io.Reader) (int64, bool) {
	if l, ok := r.(interface{ Len() int }); ok {
		return int64(l.Len()), true
	}

	if s, ok := r.(io.Seeker); ok {
		cur, err := s.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, false
		}
		end, err := s.Seek(0, io.SeekEnd)
		if err != nil {
			return 0, false
		}
		if _, err := s.Seek(cur, io.SeekStart); err != nil {
			return 0, false
		}
		return end - cur, true
	}
	return 0, false
}
