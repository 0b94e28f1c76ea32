// Package model holds the request, evidence and result types shared by the
// claim flows, and the classified errors they return.
package model

import (
	"bytes"
	"io"

	"github.com/rotisserie/eris"
)

// UploadItem is one submitted file. The content is opened on demand and every
// opener is closed by the caller that opened it.
type UploadItem struct {
	Filename  string `json:"filename"`
	MediaType string `json:"mimetype"`
	Size      int64  `json:"size"`

	open func() (io.ReadCloser, error)
}

// NewUploadItem builds an UploadItem backed by an opener (a multipart file
// header, a file on disk, ...).
func NewUploadItem(filename, mediaType string, size int64, open func() (io.ReadCloser, error)) UploadItem {
	return UploadItem{
		Filename:  filename,
		MediaType: mediaType,
		Size:      size,
		open:      open,
	}
}

// BytesUpload builds an UploadItem over an in-memory buffer.
func BytesUpload(filename, mediaType string, data []byte) UploadItem {
	return NewUploadItem(filename, mediaType, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// Open returns a fresh reader over the upload content.
func (u UploadItem) Open() (io.ReadCloser, error) {
	if u.open == nil {
		return nil, eris.Errorf("model: upload %q has no content", u.Filename)
	}
	rc, err := u.open()
	if err != nil {
		return nil, eris.Wrapf(err, "model: open upload %q", u.Filename)
	}
	return rc, nil
}

// ReadAll reads the whole upload and releases the reader before returning.
func (u UploadItem) ReadAll() ([]byte, error) {
	rc, err := u.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, eris.Wrapf(err, "model: read upload %q", u.Filename)
	}
	return data, nil
}

// Filenames lists the filenames of the given uploads.
func Filenames(items []UploadItem) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Filename
	}
	return names
}
