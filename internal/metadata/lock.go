// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockFile is the advisory lock under the metadata root.
const lockFile = ".catalog-engine.lock"

// LockRoot takes an exclusive advisory lock on the metadata root so two
// processes never scan the same tree at once. It returns the unlock
// function. The lock does not block: a held lock is an error, since the
// caller should report the competing scan rather than queue behind it.
func LockRoot(root string) (func() error, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating metadata root %s: %w", root, err)
	}

	fl := flock.New(filepath.Join(root, lockFile))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking metadata root %s: %w", root, err)
	}
	if !locked {
		return nil, fmt.Errorf("metadata root %s is locked by another process", root)
	}
	return fl.Unlock, nil
}
