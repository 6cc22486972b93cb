package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Disk stores objects as files under a root directory and serves them from
// a base URL. It stands in for the asset host when the server runs
// self-contained.
type Disk struct {
	root    string
	baseURL string
}

func NewDisk(root, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create asset root: %w", err)
	}
	return &Disk{root: root, baseURL: baseURL}, nil
}

func (d *Disk) Put(data []byte, folder string) (Image, error) {
	id := folder + "/" + uuid.NewString()
	path := filepath.Join(d.root, filepath.FromSlash(id))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Image{}, fmt.Errorf("create asset folder: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Image{}, fmt.Errorf("write asset: %w", err)
	}
	return Image{StorageID: id, URL: d.baseURL + "/" + id}, nil
}

// Delete is idempotent; removing an absent object is not an error.
func (d *Disk) Delete(storageID string) error {
	// Storage IDs are server-generated, but refuse anything that would
	// escape the root.
	if strings.Contains(storageID, "..") {
		return ErrNotFound
	}
	err := os.Remove(filepath.Join(d.root, filepath.FromSlash(storageID)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}
