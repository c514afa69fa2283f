package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DiskStore keeps documents under a root directory. The reference is the
// path relative to root, so the root can move without invalidating refs.
type DiskStore struct {
	root   string
	logger *zap.Logger
}

func NewDiskStore(root string, logger ...*zap.Logger) (*DiskStore, error) {
	l := zap.L().Named("document.disk")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("document.disk")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{root: root, logger: l}, nil
}

func (s *DiskStore) Save(ctx context.Context, leaveID, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ref := filepath.Join(leaveID, uuid.NewString()+"_"+sanitizeFilename(filename))
	full := filepath.Join(s.root, ref)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}

	s.logger.Debug("document saved", zap.String("ref", ref), zap.Int("size", len(data)))
	return ref, nil
}

func (s *DiskStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.root, ref))
	if errors.Is(err, fs.ErrNotExist) {
		// Already gone, nothing to do.
		return nil
	}
	return err
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "document"
	}
	return name
}
