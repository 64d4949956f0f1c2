// Package storage keeps price file payloads on local disk under a single
// root, namespaced as vendor_code[/dealer_id]/filename. The database stores
// the relative path; this package never hands out absolute paths.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNotFound is returned when a stored blob is missing or the path is not
// one this store could have produced.
var ErrNotFound = errors.New("storage: file not found")

// Disk is a blob store rooted at a single directory.
type Disk struct {
	root string
}

func NewDisk(root string) (*Disk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &Disk{root: abs}, nil
}

// Save writes the content under vendorCode[/dealerID]/filename and returns
// the relative path to record. The filename is reduced to its base name, so
// a crafted "../../etc/x" upload lands inside the store.
func (d *Disk) Save(vendorCode string, dealerID int64, filename string, r io.Reader) (string, error) {
	name := filepath.Base(filepath.Clean(filename))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("storage: unusable filename %q", filename)
	}
	parts := []string{vendorCode}
	if dealerID != 0 {
		parts = append(parts, strconv.FormatInt(dealerID, 10))
	}
	parts = append(parts, name)
	rel := filepath.Join(parts...)

	full, err := d.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage: create dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("storage: close file: %w", err)
	}
	return rel, nil
}

// Open returns the blob at a previously recorded relative path together
// with its size.
func (d *Disk) Open(relPath string) (io.ReadCloser, int64, error) {
	full, err := d.resolve(relPath)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("storage: open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("storage: stat file: %w", err)
	}
	return f, info.Size(), nil
}

// Delete removes a blob. A blob that is already gone counts as deleted.
func (d *Disk) Delete(relPath string) error {
	full, err := d.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove file: %w", err)
	}
	return nil
}

// resolve joins a relative path onto the root and rejects anything that
// would escape it.
func (d *Disk) resolve(relPath string) (string, error) {
	if relPath == "" {
		return "", ErrNotFound
	}
	if filepath.IsAbs(relPath) {
		return "", ErrNotFound
	}
	full := filepath.Join(d.root, relPath)
	if full != d.root && !strings.HasPrefix(full, d.root+string(filepath.Separator)) {
		return "", ErrNotFound
	}
	return full, nil
}
