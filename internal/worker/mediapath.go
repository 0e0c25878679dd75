package worker

import (
	"os"
	"path/filepath"
	"strings"
)

// mediaDataRootEnvVar remaps stored paths containing /audio/ or /video/
// onto an externally-mounted data root.
const mediaDataRootEnvVar = "MOBASHER_DATA_ROOT"

// PathResolver resolves a segment's stored (possibly-relative) media
// path to an absolute one a worker can open.
type PathResolver interface {
	Resolve(stored string) string
}

// pathResolver's search order: (a) absolute-and-exists; (b) under the
// repository root; (c) under the ingestion working directory; (d) if
// MOBASHER_DATA_ROOT is set, remap anything under /audio/ or /video/ to
// begin at that root.
type pathResolver struct {
	repoRoot      string
	ingestionRoot string
	dataRoot      string
}

// NewPathResolver builds a resolver rooted at repoRoot (the repository
// checkout) and ingestionRoot (the working directory capture runs
// from). MOBASHER_DATA_ROOT is read from the environment.
func NewPathResolver(repoRoot, ingestionRoot string) PathResolver {
	return &pathResolver{
		repoRoot:      repoRoot,
		ingestionRoot: ingestionRoot,
		dataRoot:      os.Getenv(mediaDataRootEnvVar),
	}
}

func (r *pathResolver) Resolve(stored string) string {
	if stored == "" {
		return stored
	}

	if filepath.IsAbs(stored) {
		if _, err := os.Stat(stored); err == nil {
			return stored
		}
	}

	candidates := []string{
		filepath.Join(r.repoRoot, stored),
		filepath.Join(r.ingestionRoot, stored),
	}

	if r.dataRoot != "" {
		if remapped, ok := remapUnderDataRoot(stored, r.dataRoot); ok {
			candidates = append(candidates, remapped)
		}
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}

	if filepath.IsAbs(stored) {
		return stored
	}
	return filepath.Join(r.repoRoot, stored)
}

// remapUnderDataRoot rewrites a path so that the first "audio" or
// "video" path segment and everything after it is re-rooted at dataRoot.
func remapUnderDataRoot(stored, dataRoot string) (string, bool) {
	parts := strings.Split(filepath.ToSlash(stored), "/")
	for i, part := range parts {
		if part == "audio" || part == "video" {
			return filepath.Join(append([]string{dataRoot}, parts[i:]...)...), true
		}
	}
	return "", false
}
