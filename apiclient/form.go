package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
)

// Form is a multipart form payload. It replaces the default JSON encoding
// for requests that carry file attachments.
type Form struct {
	fields []formField
	files  []formFile
}

type formField struct {
	name  string
	value string
}

type formFile struct {
	field    string
	filename string
	content  []byte
}

func NewForm() *Form {
	return &Form{}
}

// Set adds a plain field to the form.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// AttachFile adds a file part to the form.
func (f *Form) AttachFile(field, filename string, content []byte) *Form {
	f.files = append(f.files, formFile{field: field, filename: filename, content: content})
	return f
}

// encode builds the multipart body up front so the request can be replayed
// after a re-authentication cycle.
func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, field := range f.fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("write form field %q: %w", field.name, err)
		}
	}
	for _, file := range f.files {
		part, err := writer.CreateFormFile(file.field, file.filename)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %q: %w", file.filename, err)
		}
		if _, err := part.Write(file.content); err != nil {
			return nil, "", fmt.Errorf("write form file %q: %w", file.filename, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalise form: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

// PostForm submits a POST request with multipart form encoding instead of
// JSON.
func (c *Client) PostForm(ctx context.Context, path string, form *Form) (*Response, error) {
	payload, contentType, err := form.encode()
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, http.MethodPost, path, &RequestOptions{
		RawBody:     payload,
		ContentType: contentType,
	})
}
