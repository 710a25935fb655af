// Package walker finds guideline documents under a directory for ingestion
// into the knowledge base.
package walker

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the largest document Walk returns (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// sniffLen is how much of a file is searched for NUL bytes.
const sniffLen = 512

// FileInfo describes one guideline document found by Walk.
type FileInfo struct {
	Path        string // Absolute path on disk.
	RelPath     string // Path relative to the root directory, slash separated.
	Size        int64
	Format      Format
	ContentHash string // SHA-256 hex digest of the file content.
}

// WalkerConfig selects which documents Walk returns.
type WalkerConfig struct {
	RootDir     string   // Root directory to walk.
	Include     []string // Glob patterns; empty means DefaultIncludes.
	Exclude     []string // Glob patterns for files to skip.
	MaxFileSize int64    // Files larger than this are skipped (0 = use default).
}

// Walk returns every document under config.RootDir that matches the include
// patterns and none of the exclude patterns. Oversized and binary files,
// default-excluded directories and paths ignored by a root .gitignore are
// left out. Unreadable entries are skipped rather than failing the walk.
func Walk(config WalkerConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	limit := config.MaxFileSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	ignored := readIgnoreFile(filepath.Join(root, ".gitignore"))

	var found []FileInfo
	visit := func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if p != root && shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if ignored.match(rel) || !MatchesInclude(rel, config.Include) || MatchesExclude(rel, config.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > limit {
			return nil
		}
		sum, ok := textDigest(p)
		if !ok {
			return nil
		}

		found = append(found, FileInfo{
			Path:        p,
			RelPath:     rel,
			Size:        info.Size(),
			Format:      DetectFormat(d.Name()),
			ContentHash: sum,
		})
		return nil
	}

	if err := filepath.WalkDir(root, visit); err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}
	return found, nil
}

// textDigest reads a file once and returns its SHA-256 hex digest. ok is
// false when the file cannot be read or looks binary.
func textDigest(p string) (digest string, ok bool) {
	data, err := os.ReadFile(p)
	if err != nil {
		return "", false
	}
	if bytes.IndexByte(data[:min(len(data), sniffLen)], 0) >= 0 {
		return "", false
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), true
}

// ignoreRule is one pattern line of a .gitignore file. Negations are not
// supported.
type ignoreRule struct {
	pattern string
	dirOnly bool
	// anchored patterns contain a slash and match from the root; others
	// match any path segment.
	anchored bool
}

type ignoreRules []ignoreRule

func readIgnoreFile(p string) ignoreRules {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil
	}
	var rules ignoreRules
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		r := ignoreRule{dirOnly: strings.HasSuffix(line, "/")}
		line = strings.TrimSuffix(line, "/")
		r.anchored = strings.Contains(line, "/")
		r.pattern = strings.TrimPrefix(line, "/")
		rules = append(rules, r)
	}
	return rules
}

// match reports whether the slash-separated file path rel is ignored.
func (rules ignoreRules) match(rel string) bool {
	segments := strings.Split(rel, "/")
	dirs := segments[:len(segments)-1]
	for _, r := range rules {
		if r.anchored {
			// An anchored pattern ignores the path itself or any directory
			// prefix of it.
			for i := len(segments); i > 0; i-- {
				if r.dirOnly && i == len(segments) {
					continue
				}
				if ok, _ := doublestar.Match(r.pattern, path.Join(segments[:i]...)); ok {
					return true
				}
			}
			continue
		}
		candidates := segments
		if r.dirOnly {
			candidates = dirs
		}
		for _, seg := range candidates {
			if ok, _ := path.Match(r.pattern, seg); ok {
				return true
			}
		}
	}
	return false
}
