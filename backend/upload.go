package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pkg/errors"
)

// UploadResult is the decoded envelope of a multipart GraphQL request. The
// caller inspects Errors itself because upload proxies map backend errors to
// distinct HTTP statuses instead of one error value.
type UploadResult struct {
	Data   json.RawMessage
	Errors []UploadError
}

// UploadError is one backend error from a multipart exchange.
type UploadError struct {
	Message string
	Code    string
}

// Upload posts a GraphQL multipart request (the operations/map/file protocol
// used by Apollo upload servers). The file reader is attached under part name
// "0"; pass a nil file for a passthrough of operations/map only.
func (c *Client) Upload(ctx context.Context, operations, fileMap string, file io.Reader, filename string) (*UploadResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("operations", operations); err != nil {
		return nil, errors.Wrap(err, "write operations field")
	}
	if fileMap == "" {
		fileMap = "{}"
	}
	if err := writer.WriteField("map", fileMap); err != nil {
		return nil, errors.Wrap(err, "write map field")
	}
	if file != nil {
		part, err := writer.CreateFormFile("0", filename)
		if err != nil {
			return nil, errors.Wrap(err, "create file part")
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, errors.Wrap(err, "copy file part")
		}
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "finalize multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return nil, errors.Wrap(err, "create upload request")
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	// Required by Apollo Server to prevent CSRF for multipart requests.
	req.Header.Set("apollo-require-preflight", "true")

	res, err := c.inner.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "post multipart upload")
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		maybeLogErrorBody(res)
		return nil, errors.Errorf("backend returned http %d", res.StatusCode)
	}

	var envelope response
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, errors.Wrap(err, "decode upload response")
	}

	result := &UploadResult{Data: envelope.Data}
	for _, e := range envelope.Errors {
		result.Errors = append(result.Errors, UploadError{Message: e.Message, Code: e.Extensions.Code})
	}
	return result, nil
}
