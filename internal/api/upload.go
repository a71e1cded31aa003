package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/pageza/pantrypal/backend/internal/models"
	"github.com/pageza/pantrypal/backend/internal/storage"
)

const sniffLen = 512

var errNotImage = models.NewValidationError("Only image files are allowed")

// TextList accepts either a JSON array of strings or a single string with
// one entry per line, the shape a textarea submits.
type TextList []string

func (l *TextList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("expected a string or a list of strings")
	}
	*l = splitLines(s)
	return nil
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == "multipart/form-data"
}

// formList reads a repeated form field. A single value is split into lines.
func formList(form *multipart.Form, key string) []string {
	values, ok := form.Value[key]
	if !ok {
		return nil
	}
	if len(values) == 1 {
		return splitLines(values[0])
	}
	return values
}

func formString(form *multipart.Form, key string) *string {
	values, ok := form.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}

// saveUploads stores every file as an image in folder. The content type is
// sniffed from the data, not taken from the client. On failure the files
// stored so far are removed.
func saveUploads(ctx context.Context, store storage.Storage, folder storage.Folder, files []*multipart.FileHeader) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, fh := range files {
		p, err := saveUpload(ctx, store, folder, fh)
		if err != nil {
			discardUploads(ctx, store, paths)
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func saveUpload(ctx context.Context, store storage.Storage, folder storage.Folder, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", models.NewInternalError(err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	if !storage.IsImage(contentType) {
		return "", errNotImage
	}

	p, err := store.Save(ctx, folder, fh.Filename, contentType, io.MultiReader(bytes.NewReader(head), f))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return p, nil
}

func discardUploads(ctx context.Context, store storage.Storage, paths []string) {
	for _, p := range paths {
		if err := store.Delete(ctx, p); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("path", p).Msg("failed to discard upload")
		}
	}
}
