package api

import (
	"context"
	"io"
)

// Transport performs the HTTP calls the entities need. Client is the
// production implementation; fake.Transport serves tests.
type Transport interface {
	Get(ctx context.Context, endpoint string, out any) error
	Post(ctx context.Context, endpoint string, in, out any) error
	PostMultipart(ctx context.Context, endpoint string, form MultipartForm, out any) error
	Delete(ctx context.Context, endpoint string, out any) error
	// Download streams the body of an external URL into w without the
	// service credentials and returns the number of bytes written.
	Download(ctx context.Context, rawURL string, w io.Writer) (int64, error)
}

// MultipartForm is the body of a multipart/form-data request.
type MultipartForm struct {
	Fields map[string]string
	Files  []FormFile
}

// FormFile is one file part of a MultipartForm.
type FormFile struct {
	FieldName string
	FileName  string
	Reader    io.Reader
}
