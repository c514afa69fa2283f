package document

import "context"

// Store holds binary artifacts attached to leave requests. References are
// opaque strings; callers persist them and pass them back for deletion.
type Store interface {
	Save(ctx context.Context, leaveID, filename string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}
