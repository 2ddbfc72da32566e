package engine

import (
	"path/filepath"

	"github.com/sceneforge/stagedit/internal/layers"
)

// normalizeIdentifier resolves a user-provided layer identifier (absolute
// path, path relative to the working directory, or anonymous token) to the
// canonical form used as a store key. Sub-layer references authored inside
// layer documents are never normalized here; they stay verbatim and are
// resolved against their parent layer instead.
func normalizeIdentifier(cwd, identifier string) string {
	if layers.IsAnonymousIdentifier(identifier) {
		return identifier
	}
	if filepath.IsAbs(identifier) {
		return filepath.Clean(identifier)
	}
	return filepath.Clean(filepath.Join(cwd, identifier))
}
