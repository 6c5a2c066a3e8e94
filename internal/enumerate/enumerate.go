// Package enumerate implements the File Enumerator & Classifier (§4.4): a
// recursive walk of the selected roots that excludes lock/temp files and
// (by default) hidden files, then classifies every remaining file as
// content-indexed or metadata-only by extension.
package enumerate

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/Ryan-gw-park/local-file-search/internal/schema"
)

// contentIndexedExtensions is the fixed extension set that makes a file
// content-indexed (§4.4). Anything else enumerated is metadata-only.
var contentIndexedExtensions = map[string]struct{}{
	".docx": {},
	".xlsx": {},
	".pptx": {},
	".pdf":  {},
	".md":   {},
}

// Options configures a walk.
type Options struct {
	// Roots is the set of directories to walk.
	Roots []string
	// IncludeHidden overrides the v2.0 default of excluding dotfiles/dotdirs.
	IncludeHidden bool
}

// Entry is one enumerated file, not yet a FileRecord (the Orchestrator
// assigns file_id and persists it after classification succeeds).
type Entry struct {
	Path           string
	Filename       string
	Extension      string
	ContentIndexed bool
	SizeBytes      int64
	ModifiedAt     float64
	CreatedAt      float64
	Fingerprint    schema.Fingerprint
}

// Walk enumerates every eligible file under opts.Roots, streaming results on
// the returned channel. The channel closes when the walk completes or ctx is
// cancelled. Errors accessing individual paths are skipped, not fatal,
// matching the teacher's "best effort" traversal stance.
func Walk(ctx context.Context, opts Options) <-chan Entry {
	out := make(chan Entry, 64)

	go func() {
		defer close(out)
		for _, root := range opts.Roots {
			absRoot, err := filepath.Abs(root)
			if err != nil {
				continue
			}
			walkRoot(ctx, absRoot, opts, out)
		}
	}()

	return out
}

func walkRoot(ctx context.Context, absRoot string, opts Options, out chan<- Entry) {
	_ = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if path != absRoot && shouldExcludeDir(name, opts) {
				return filepath.SkipDir
			}
			return nil
		}

		if shouldExcludeFile(name, opts) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		_, indexed := contentIndexedExtensions[ext]

		modAt := float64(info.ModTime().UnixNano()) / float64(time.Second)

		entry := Entry{
			Path:           path,
			Filename:       name,
			Extension:      ext,
			ContentIndexed: indexed,
			SizeBytes:      info.Size(),
			ModifiedAt:     modAt,
			CreatedAt:      modAt, // most platforms don't expose creation time via os.FileInfo
			Fingerprint: schema.Fingerprint{
				SizeBytes:  info.Size(),
				ModifiedAt: modAt,
			},
		}

		select {
		case out <- entry:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}

func shouldExcludeDir(name string, opts Options) bool {
	if name == ".git" {
		return true
	}
	if !opts.IncludeHidden && isHidden(name) {
		return true
	}
	return false
}

func shouldExcludeFile(name string, opts Options) bool {
	if strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".tmp") {
		return true
	}
	if !opts.IncludeHidden && isHidden(name) {
		return true
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// ContentIndexedExtensions reports whether ext (including the leading dot,
// lowercased) classifies a file as content-indexed (§4.4).
func ContentIndexedExtensions(ext string) bool {
	_, ok := contentIndexedExtensions[strings.ToLower(ext)]
	return ok
}
