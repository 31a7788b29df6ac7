package fs

import (
	iofs "io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIncludes selects the files imported when no pattern is given.
var DefaultIncludes = []string{"**/*.jsonl"}

// alwaysExcluded keeps the store's own data directory out of imports.
var alwaysExcluded = patternSet{".vecdb/**", ".git/**"}

// patternSet matches slash-separated relative paths against doublestar
// patterns. Invalid patterns never match.
type patternSet []string

func (ps patternSet) matches(rel string) bool {
	return slices.ContainsFunc(ps, func(pattern string) bool {
		ok, err := doublestar.Match(pattern, rel)
		return err == nil && ok
	})
}

// Walker selects import files below a root directory.
type Walker struct {
	includes patternSet
	excludes patternSet
}

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = DefaultIncludes
	}
	return &Walker{
		includes: patternSet(includes),
		excludes: slices.Concat(alwaysExcluded, patternSet(excludes)),
	}
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}

// Walk returns the files under root matching the walker's patterns,
// ordered by path so repeated imports replay identically.
func (w *Walker) Walk(root string) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d iofs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			// A trailing slash lets "dir/**" prune the directory itself.
			if rel != "." && w.excludes.matches(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		case !d.Type().IsRegular(), !w.includes.matches(rel), w.excludes.matches(rel):
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, FileInfo{Path: path, ModTime: info.ModTime().Unix(), Size: info.Size()})
		return nil
	})

	slices.SortFunc(files, func(a, b FileInfo) int { return strings.Compare(a.Path, b.Path) })
	return files, err
}
