package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erazemk/stockmgtr/internal/imaging"
	"github.com/erazemk/stockmgtr/internal/model"
)

// pathID parses the {id} wildcard.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// form reads submitted values and keeps the message of the first invalid
// field.
type form struct {
	values url.Values
	msg    string
}

func newForm(r *http.Request) *form {
	if err := r.ParseForm(); err != nil {
		return &form{values: url.Values{}, msg: "The form could not be read."}
	}
	return &form{values: r.PostForm}
}

func (f *form) invalid(format string, args ...any) {
	if f.msg == "" {
		f.msg = fmt.Sprintf(format, args...)
	}
}

func (f *form) ok() bool { return f.msg == "" }

func (f *form) str(name string) string {
	return strings.TrimSpace(f.values.Get(name))
}

func (f *form) int(name, label string) int {
	s := f.str(name)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f.invalid("%s must be a whole number.", label)
	}
	return n
}

func (f *form) optionalInt(name, label string) *int {
	if f.str(name) == "" {
		return nil
	}
	n := f.int(name, label)
	return &n
}

func (f *form) id(name, label string) int64 {
	s := f.str(name)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		f.invalid("Invalid %s.", label)
	}
	return n
}

func (f *form) ids(name, label string) []int64 {
	var out []int64
	for _, s := range f.values[name] {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			f.invalid("Invalid %s.", label)
			continue
		}
		out = append(out, n)
	}
	return out
}

func (f *form) decimal(name, label string) decimal.Decimal {
	s := f.str(name)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		f.invalid("%s must be a number.", label)
		return decimal.Zero
	}
	return d
}

func (f *form) date(name, label string) model.Date {
	d, err := model.ParseDate(f.str(name))
	if err != nil {
		f.invalid("%s must be a date (YYYY-MM-DD).", label)
	}
	return d
}

// dateTimeLayout is the value format of datetime-local inputs.
const dateTimeLayout = "2006-01-02T15:04"

func (f *form) dateTime(name, label string) time.Time {
	s := f.str(name)
	if s == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(dateTimeLayout, s, time.Local)
	if err != nil {
		f.invalid("%s must be a date and time.", label)
	}
	return t
}

// newUploadForm parses a multipart form and prepares its optional file
// field. The attachment is nil when no file was sent.
func newUploadForm(w http.ResponseWriter, r *http.Request, field string) (*form, *model.Attachment) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadSize); err != nil {
		return &form{values: url.Values{}, msg: "The upload is too large or malformed."}, nil
	}
	f := &form{values: r.PostForm}

	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return f, nil
	}
	if err != nil {
		f.invalid("The uploaded file could not be read.")
		return f, nil
	}
	defer file.Close()

	att, err := imaging.Prepare(header.Filename, file)
	switch {
	case errors.Is(err, imaging.ErrUnsupported):
		f.invalid("Only PDF, JPEG and PNG files can be uploaded.")
	case errors.Is(err, imaging.ErrTooLarge):
		f.invalid("The uploaded file is too large (10 MB max).")
	case err != nil:
		f.invalid("The uploaded file could not be processed.")
	}
	return f, att
}
