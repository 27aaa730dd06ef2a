package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	appErrors "github.com/noah-isme/classroom-sync/pkg/errors"
)

// ContentRegistry holds uploaded material bytes for one execution context and
// hands out signed references to them. References stop resolving once the
// registry is released, the same way an object URL dies with its page.
type ContentRegistry struct {
	files  *LocalStorage
	signer *RefSigner
	owner  string

	mu       sync.RWMutex
	names    map[string]string
	released bool
}

// NewContentRegistry constructs a registry writing under files for owner.
func NewContentRegistry(files *LocalStorage, signer *RefSigner, owner string) *ContentRegistry {
	return &ContentRegistry{files: files, signer: signer, owner: owner, names: make(map[string]string)}
}

// Register stores data and returns a reference to it.
func (r *ContentRegistry) Register(classroomID int64, seq int, name string, data []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return "", fmt.Errorf("content registry released")
	}
	relPath := path.Join(r.owner, fmt.Sprintf("%d", classroomID), fmt.Sprintf("%d-%s", seq, safeName(name)))
	if _, err := r.files.Save(relPath, data); err != nil {
		return "", err
	}
	ref, _, err := r.signer.Generate(r.owner, relPath)
	if err != nil {
		return "", fmt.Errorf("sign content reference: %w", err)
	}
	r.names[relPath] = name
	return ref, nil
}

// Resolve opens the content behind ref. The caller closes the file.
func (r *ContentRegistry) Resolve(ref string) (string, *os.File, error) {
	owner, relPath, err := r.signer.Parse(ref)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "material reference invalid")
	}
	r.mu.RLock()
	name, ok := r.names[relPath]
	released := r.released
	r.mu.RUnlock()
	if owner != r.owner || !ok || released {
		return "", nil, appErrors.Clone(appErrors.ErrNotFound, "material content released")
	}
	file, err := r.files.Open(relPath)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "material content missing")
	}
	return name, file, nil
}

// Release deletes every file registered by this owner. Later references fail.
func (r *ContentRegistry) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return nil
	}
	r.released = true
	r.names = make(map[string]string)
	return r.files.RemoveDir(r.owner)
}

func safeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "file"
	}
	return base
}
