// internal/proof/proof.go
package proof

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"stokvelhub/internal/reference"
)

var ErrNotFound = errors.New("proof artifact not found")

// Store holds proof-of-payment artifacts. The ledger only ever passes the
// returned reference around; artifact contents are opaque to it.
type Store interface {
	Save(ctx context.Context, blob []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
}

// FSStore keeps artifacts as files under a root directory, named by their
// reference.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Save(_ context.Context, blob []byte) (string, error) {
	ref := fmt.Sprintf("%s-%s", reference.ProofPrefix, uuid.New())
	if err := os.WriteFile(filepath.Join(s.root, ref), blob, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return ref, nil
}

func (s *FSStore) Get(_ context.Context, ref string) ([]byte, error) {
	// References are generated, never caller-supplied paths.
	if filepath.Base(ref) != ref {
		return nil, ErrNotFound
	}
	blob, err := os.ReadFile(filepath.Join(s.root, ref))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return blob, nil
}
