package media

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Playlist is the audio loop for one stream session: the concat artifact
// the encoder reads plus the tracks behind it, in enumeration order.
type Playlist struct {
	Path  string
	Files []string
}

// BuildPlaylist globs the top-level *.mp3 files under dir and writes a
// fresh concat artifact to path, replacing any stale one. An empty
// directory is not an error; the artifact just carries no entries and
// the encoder decides what to make of it.
func BuildPlaylist(dir, path string) (Playlist, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.mp3"))
	if err != nil {
		return Playlist{}, fmt.Errorf("glob audio directory: %w", err)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return Playlist{}, fmt.Errorf("remove stale playlist: %w", err)
	}

	var files []string
	var records strings.Builder
	for _, match := range matches {
		abs, err := filepath.Abs(match)
		if err != nil {
			return Playlist{}, fmt.Errorf("resolve track path: %w", err)
		}
		files = append(files, abs)
		fmt.Fprintf(&records, "file '%s'\n", abs)
		log.Printf("🎵 queued: %s", describeTrack(abs))
	}

	if err := os.WriteFile(path, []byte(records.String()), 0644); err != nil {
		return Playlist{}, fmt.Errorf("write playlist: %w", err)
	}
	return Playlist{Path: path, Files: files}, nil
}

// describeTrack returns "Artist - Title" from the file's tags. If the
// tags are unreadable or empty we fail gracefully to the bare filename.
func describeTrack(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return filepath.Base(path)
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil || meta.Title() == "" {
		return filepath.Base(path)
	}
	if meta.Artist() == "" {
		return meta.Title()
	}
	return meta.Artist() + " - " + meta.Title()
}
