// Package blobstore keeps uploaded files on the local filesystem under a root
// directory; the same root is served publicly at /storage/.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"hotel_catalog/internal/adapters/observability"
)

var ErrOutsideRoot = errors.New("blobstore: path escapes storage root")

type Disk struct{ root string }

func NewDisk(root string) (*Disk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Disk{root: abs}, nil
}

func (d *Disk) Root() string { return d.root }

// resolve maps a slash-separated key to an absolute path inside root.
func (d *Disk) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) {
		return "", ErrOutsideRoot
	}
	abs := filepath.Join(d.root, clean)
	rel, err := filepath.Rel(d.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", ErrOutsideRoot
	}
	return abs, nil
}

func (d *Disk) Exists(ctx context.Context, key string) (bool, error) {
	p, err := d.resolve(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Write streams r to key through a temp file so readers never see a partial blob.
func (d *Disk) Write(ctx context.Context, key string, r io.Reader) (int64, error) {
	p, err := d.resolve(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = os.Rename(tmp.Name(), p)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		observability.ObserveBlob("write", err)
		return 0, err
	}
	observability.ObserveBlob("write", nil)
	return n, nil
}

// Delete removes key; a missing file counts as success.
func (d *Disk) Delete(ctx context.Context, key string) error {
	p, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		observability.ObserveBlob("delete", err)
		return err
	}
	observability.ObserveBlob("delete", nil)
	return nil
}

func (d *Disk) RemoveDirIfEmpty(ctx context.Context, dir string) error {
	p, err := d.resolve(dir)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return nil
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
