package layers

import (
	"fmt"
	"path/filepath"
)

// RewriteRelative recomputes a relative sub-layer path when its reference
// moves from one parent layer to another. The rewritten path resolves to
// the same file from the new parent's directory that the original path
// resolved to from the old parent's directory.
//
// Absolute paths, anonymous identifiers, and moves involving anonymous
// parents are returned unchanged: they carry no directory to be relative to.
func RewriteRelative(path string, oldParent, newParent *Layer) (string, error) {
	if IsAnonymousIdentifier(path) || filepath.IsAbs(path) {
		return path, nil
	}
	if oldParent == nil || newParent == nil || oldParent.Anonymous || newParent.Anonymous {
		return path, nil
	}

	oldDir := filepath.Dir(oldParent.Identifier)
	newDir := filepath.Dir(newParent.Identifier)
	if oldDir == newDir {
		return path, nil
	}

	abs := filepath.Clean(filepath.Join(oldDir, filepath.FromSlash(path)))
	rel, err := filepath.Rel(newDir, abs)
	if err != nil {
		return "", fmt.Errorf("failed to rebase %q from %q to %q: %w", path, oldDir, newDir, err)
	}
	return filepath.ToSlash(rel), nil
}
