// Package storage provides file operations rooted at a notebook tree.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Tree performs file operations confined to a single root directory.
// Every path argument is relative to that root; anything resolving outside
// of it is rejected.
type Tree struct {
	root string // absolute path to the notebook directory
}

// New creates a Tree rooted at the given directory. The directory must
// already exist.
func New(root string) (*Tree, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &Tree{root: abs}, nil
}

// Create ensures the directory exists and returns a Tree rooted at it.
func Create(root string) (*Tree, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return New(root)
}

// Root returns the absolute root path.
func (t *Tree) Root() string {
	return t.root
}

// safePath resolves a relative path against the root and rejects any result
// that escapes it (directory traversal).
func (t *Tree) safePath(rel string) (string, error) {
	if rel == "" {
		return t.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(t.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, t.root+string(os.PathSeparator)) && abs != t.root {
		return "", fmt.Errorf("storage: path escapes notebook root: %s", rel)
	}
	return abs, nil
}

// ListDirs returns the sorted names of the direct subdirectories of dir.
// Sorting makes traversal order, and therefore collision suffixing,
// reproducible across runs.
func (t *Tree) ListDirs(dir string) ([]string, error) {
	base, err := t.safePath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("storage: list dirs: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// ListFiles returns the sorted names of the regular files directly in dir,
// optionally filtered by extension (e.g. ".md"; empty means all).
func (t *Tree) ListFiles(dir, ext string) ([]string, error) {
	base, err := t.safePath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("storage: list files: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext != "" && !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// Read returns the raw bytes of a file.
func (t *Tree) Read(path string) ([]byte, error) {
	abs, err := t.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write atomically writes content: tmp file, fsync, rename.
func (t *Tree) Write(path string, content []byte) error {
	abs, err := t.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".migration-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Copy duplicates the file at src to dst, both relative to the root.
func (t *Tree) Copy(src, dst string) error {
	absSrc, err := t.safePath(src)
	if err != nil {
		return err
	}
	in, err := os.Open(absSrc)
	if err != nil {
		return fmt.Errorf("storage: open %s: %w", src, err)
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", src, err)
	}
	return t.Write(dst, data)
}

// Exists reports whether a file or directory is present at path.
func (t *Tree) Exists(path string) bool {
	abs, err := t.safePath(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// Size returns the size in bytes of the file at path.
func (t *Tree) Size(path string) (int64, error) {
	abs, err := t.safePath(path)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return 0, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// Abs resolves path against the root, rejecting traversal.
func (t *Tree) Abs(path string) (string, error) {
	return t.safePath(path)
}

// MkdirAll creates the directory at path, parents included.
func (t *Tree) MkdirAll(path string) error {
	abs, err := t.safePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", path, err)
	}
	return nil
}

// Remove removes a file.
func (t *Tree) Remove(path string) error {
	abs, err := t.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

// RemoveAll removes a directory and its contents.
func (t *Tree) RemoveAll(path string) error {
	abs, err := t.safePath(path)
	if err != nil {
		return err
	}
	if abs == t.root {
		return fmt.Errorf("storage: refusing to remove notebook root")
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("storage: remove %s: %w", path, err)
	}
	return nil
}

// MoveTo relocates a file from this tree into another one. A plain rename
// is attempted first; a copy-then-delete covers cross-device destinations.
func (t *Tree) MoveTo(src string, dst *Tree, dstPath string) error {
	absSrc, err := t.safePath(src)
	if err != nil {
		return err
	}
	absDst, err := dst.safePath(dstPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absDst), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for move: %w", err)
	}
	if err := os.Rename(absSrc, absDst); err == nil {
		return nil
	}
	data, err := os.ReadFile(absSrc)
	if err != nil {
		return fmt.Errorf("storage: move read %s: %w", src, err)
	}
	if err := dst.Write(dstPath, data); err != nil {
		return err
	}
	if err := os.Remove(absSrc); err != nil {
		return fmt.Errorf("storage: move cleanup %s: %w", src, err)
	}
	return nil
}
