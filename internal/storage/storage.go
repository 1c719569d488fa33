package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/makhanda-smiles/portal-api/internal/model"
)

// Object describes an uploaded file and its owner.
type Object struct {
	PatientEmail string
	DocumentType model.DocumentType
	FileName     string
	ContentType  string
	Size         int64
}

// Store accepts a file and returns a reference to where it was stored.
// Delete removes the object behind a reference returned by Put.
type Store interface {
	Put(ctx context.Context, body io.Reader, obj Object) (string, error)
	Delete(ctx context.Context, ref string) error
	Name() string
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._@-]+`)

func sanitize(s string) string {
	return strings.Trim(unsafeChars.ReplaceAllString(s, "_"), "_")
}

// objectKey is documents/<email>/<type>/<uuid>-<file>.
func objectKey(obj Object) string {
	name := sanitize(path.Base(obj.FileName))
	if name == "" {
		name = "file"
	}
	return fmt.Sprintf("documents/%s/%s/%s-%s",
		sanitize(strings.ToLower(obj.PatientEmail)), obj.DocumentType, uuid.NewString(), name)
}

// DemoStore pretends to store files. It never touches the network.
type DemoStore struct{}

func (DemoStore) Name() string { return "demo" }

func (DemoStore) Put(ctx context.Context, body io.Reader, obj Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	return "demo://" + objectKey(obj), nil
}

// Delete is a no-op; nothing was stored.
func (DemoStore) Delete(context.Context, string) error { return nil }
