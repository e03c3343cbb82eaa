package api

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
)

// UploadFile is one file part of a multipart upload.
type UploadFile struct {
	FieldName string // form field name, defaults to "file"
	Name      string // filename reported to the server
	Content   []byte
}

// ProgressFunc receives upload progress keyed by an opaque upload id.
// Percentage is bytesSent/bytesTotal*100; it is only reported when the
// total body length is known, which is always the case here since the
// multipart body is assembled in memory before sending.
type ProgressFunc func(uploadID string, bytesSent, bytesTotal int64)

// Upload sends files and extra key/value fields as one multipart request
// and decodes the JSON response into result. Uploads are not retried; a
// failed upload surfaces immediately to the caller.
func (c *Client) Upload(ctx context.Context, path string, files []UploadFile, fields map[string]string, onProgress ProgressFunc, result any) error {
	if len(files) == 0 {
		return Validationf("no files to upload")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range files {
		field := f.FieldName
		if field == "" {
			field = "file"
		}
		part, err := writer.CreateFormFile(field, f.Name)
		if err != nil {
			return Validationf("failed to build multipart body: %v", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return Validationf("failed to write file part: %v", err)
		}
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return Validationf("failed to write form field %s: %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return Validationf("failed to finalize multipart body: %v", err)
	}

	uploadID := uuid.NewString()
	total := int64(buf.Len())

	var body io.Reader = &buf
	if onProgress != nil {
		body = &progressReader{r: &buf, id: uploadID, total: total, report: onProgress}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return Validationf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.ContentLength = total

	if c.logger != nil {
		c.logger.Debug("uploading", "path", path, "upload_id", uploadID, "bytes", total, "files", len(files))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "upload failed", Err: err}
	}
	defer resp.Body.Close()

	return c.handleResponse(resp, result)
}

// progressReader reports cumulative bytes read through it.
type progressReader struct {
	r      io.Reader
	id     string
	sent   int64
	total  int64
	report ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.id, p.sent, p.total)
	}
	return n, err
}
