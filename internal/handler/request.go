package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/riyahid/travel-go/internal/service"
)

const (
	// multipartMemory is how much of a multipart body is held in memory
	// before file parts spill to temporary files.
	multipartMemory = 8 << 20

	entryPart  = "entry"
	photosPart = "photos"
)

var errBodyRequired = errors.New("request body is required")

// decodeJSON decodes the request body into v.
func decodeJSON(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errBodyRequired
		}
		return err
	}
	return nil
}

// readEntry decodes an entry payload into v and collects any photo uploads.
// A plain JSON body carries no photos. A multipart/form-data body carries
// the JSON in an "entry" part and each photo in a "photos" part.
func readEntry(r *http.Request, v any) ([]service.Attachment, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return nil, decodeJSON(r.Body, v)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	form := r.MultipartForm

	entry, err := entryJSON(form)
	if err != nil {
		return nil, err
	}
	err = decodeJSON(entry, v)
	entry.Close()
	if err != nil {
		return nil, err
	}

	files := form.File[photosPart]
	atts := make([]service.Attachment, 0, len(files))
	for _, fh := range files {
		atts = append(atts, service.Attachment{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return atts, nil
}

// entryJSON returns the "entry" part whether the client sent it as a plain
// field or as a file.
func entryJSON(form *multipart.Form) (io.ReadCloser, error) {
	if vals := form.Value[entryPart]; len(vals) > 0 {
		return io.NopCloser(strings.NewReader(vals[0])), nil
	}
	if files := form.File[entryPart]; len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			return nil, fmt.Errorf("open entry part: %w", err)
		}
		return f, nil
	}
	return nil, fmt.Errorf("multipart body must include an %q part", entryPart)
}
