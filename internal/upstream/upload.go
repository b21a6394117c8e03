package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sync"
)

// Form is a multipart form body with optional file parts.
type Form struct {
	fields [][2]string
	files  []formFile
}

type formFile struct {
	field, filename, contentType string
	data                         []byte
}

// Set adds a text field.
func (f *Form) Set(name, value string) *Form {
	f.fields = append(f.fields, [2]string{name, value})
	return f
}

// SetOptional adds a text field only when value is non-empty.
func (f *Form) SetOptional(name, value string) *Form {
	if value != "" {
		f.Set(name, value)
	}
	return f
}

// File adds a file part.
func (f *Form) File(field, filename, contentType string, data []byte) *Form {
	f.files = append(f.files, formFile{field: field, filename: filename, contentType: contentType, data: data})
	return f
}

func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("writing form field %s: %w", kv[0], err)
		}
	}
	for _, file := range f.files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.field, file.filename))
		ct := file.contentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating form file %s: %w", file.field, err)
		}
		if _, err := part.Write(file.data); err != nil {
			return nil, "", fmt.Errorf("writing form file %s: %w", file.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// PostForm sends form as multipart and decodes the JSON response into out.
func (c *Client) PostForm(ctx context.Context, path string, form *Form, out any) error {
	return c.doForm(ctx, http.MethodPost, path, form, nil, out)
}

// PatchForm sends form as a multipart PATCH.
func (c *Client) PatchForm(ctx context.Context, path string, form *Form, out any) error {
	return c.doForm(ctx, http.MethodPatch, path, form, nil, out)
}

// Upload posts a single file in the "file" field. progress, if non-nil,
// receives the percentage of the body sent, from 0 to 100.
func (c *Client) Upload(ctx context.Context, path, filename, contentType string, data []byte, progress func(percent int), out any) error {
	form := (&Form{}).File("file", filename, contentType, data)
	return c.doForm(ctx, http.MethodPost, path, form, progress, out)
}

func (c *Client) doForm(ctx context.Context, method, path string, form *Form, progress func(int), out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      method,
		path:        path,
		body:        body,
		contentType: contentType,
		progress:    progress,
	}, out)
}

// progressReader reports how much of a body has been read.
type progressReader struct {
	data   []byte
	off    int
	report func(int)
	last   int
	once   sync.Once
}

func newProgressReader(data []byte, report func(int)) *progressReader {
	return &progressReader{data: data, report: report, last: -1}
}

func (p *progressReader) Read(b []byte) (int, error) {
	p.once.Do(func() { p.emit(0) })
	if p.off >= len(p.data) {
		p.emit(100)
		return 0, io.EOF
	}
	n := copy(b, p.data[p.off:])
	p.off += n
	p.emit(p.off * 100 / len(p.data))
	return n, nil
}

func (p *progressReader) emit(percent int) {
	if percent != p.last {
		p.last = percent
		p.report(percent)
	}
}
