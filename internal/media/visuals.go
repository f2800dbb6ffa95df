package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// VisualsError reports a visuals directory that does not hold exactly one
// usable asset. Candidates carries every match when there are too many.
type VisualsError struct {
	Dir        string
	Candidates []string
}

func (e *VisualsError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("no visuals asset in %s (need exactly one non-hidden file)", e.Dir)
	}
	return fmt.Sprintf("expected exactly one visuals asset in %s, found %d: %s",
		e.Dir, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// ResolveVisuals picks the single looping asset out of dir. Hidden files,
// directories and anything that is not a regular file are ignored. The
// result is an absolute path so the encoder is immune to cwd changes.
// Resolution happens fresh on every stream start.
func ResolveVisuals(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read visuals directory: %w", err)
	}

	var candidates []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			return "", fmt.Errorf("resolve visuals path: %w", err)
		}
		candidates = append(candidates, abs)
	}

	if len(candidates) != 1 {
		return "", &VisualsError{Dir: dir, Candidates: candidates}
	}
	return candidates[0], nil
}
