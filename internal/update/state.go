package update

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/edgekit/iotgw/internal/infrastructure/config"
)

// File and directory names under the update directory.
const (
	currentVersionFile = "current_version.txt"
	stagedFile         = "staged.kv"
	stagingDir         = "staging"
	historyDir         = "history"
)

// fallbackVersion is reported when no version file exists.
const fallbackVersion = "0.0.0"

// Staged describes a downloaded update package awaiting application.
type Staged struct {
	Version        string
	PackagePath    string
	SHA256         string
	StagedAtUnixMS int64
}

// CurrentVersion reads the current version from dir.
// It returns "0.0.0" when the file is missing or unreadable.
func CurrentVersion(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, currentVersionFile))
	if err != nil {
		return fallbackVersion
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return fallbackVersion
	}
	return v
}

// SetCurrentVersion writes the current version file atomically.
func SetCurrentVersion(dir, version string) error {
	if strings.TrimSpace(version) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidVersion)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create update dir: %w", err)
	}
	path := filepath.Join(dir, currentVersionFile)
	return writeFileAtomic(path, []byte(version+"\n"))
}

// LoadStaged reads staged.kv from dir.
// It returns ErrNoStaged when the file does not exist.
func LoadStaged(dir string) (Staged, error) {
	path := filepath.Join(dir, stagedFile)
	if _, err := os.Stat(path); err != nil {
		return Staged{}, ErrNoStaged
	}

	m := config.NewMap()
	if err := m.LoadKeyValues(path); err != nil {
		return Staged{}, fmt.Errorf("read staged metadata: %w", err)
	}

	s := Staged{
		Version:     m.GetStringOr("version", ""),
		PackagePath: m.GetStringOr("package_path", ""),
		SHA256:      m.GetStringOr("sha256", ""),
	}
	if ms, ok := m.GetInt64("staged_at_unix_ms"); ok {
		s.StagedAtUnixMS = ms
	}
	if s.Version == "" {
		return Staged{}, fmt.Errorf("%w: staged metadata has no version", ErrInvalidVersion)
	}
	return s, nil
}

// SaveStaged writes staged.kv to dir atomically.
func SaveStaged(dir string, s Staged) error {
	if !IsValidSemVer(s.Version) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, s.Version)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create update dir: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "version=%s\n", s.Version)
	fmt.Fprintf(&b, "package_path=%s\n", s.PackagePath)
	fmt.Fprintf(&b, "sha256=%s\n", s.SHA256)
	fmt.Fprintf(&b, "staged_at_unix_ms=%d\n", s.StagedAtUnixMS)

	return writeFileAtomic(filepath.Join(dir, stagedFile), []byte(b.String()))
}

// ApplyStaged promotes the staged update: if its version supersedes the
// current one it becomes the current version, and the staged metadata moves
// to history/applied_<staged_at_ms>.kv.
//
// It returns ErrNoStaged when nothing is staged and ErrNotNewer when the
// staged version does not supersede the current one; in the latter case the
// staged metadata is left in place.
func ApplyStaged(dir string) (Staged, error) {
	s, err := LoadStaged(dir)
	if err != nil {
		return Staged{}, err
	}

	current := CurrentVersion(dir)
	if CompareSemVer(s.Version, current) <= 0 {
		return s, fmt.Errorf("%w: staged %s, current %s", ErrNotNewer, s.Version, current)
	}

	if err := SetCurrentVersion(dir, s.Version); err != nil {
		return s, err
	}

	histDir := filepath.Join(dir, historyDir)
	if err := os.MkdirAll(histDir, 0o755); err != nil {
		return s, fmt.Errorf("create history dir: %w", err)
	}
	applied := filepath.Join(histDir, fmt.Sprintf("applied_%d.kv", s.StagedAtUnixMS))
	if err := renameWithFallback(filepath.Join(dir, stagedFile), applied); err != nil {
		return s, fmt.Errorf("archive staged metadata: %w", err)
	}
	return s, nil
}

// StagingPath returns the directory holding downloaded package blobs.
func StagingPath(dir string) string {
	return filepath.Join(dir, stagingDir)
}

// writeFileAtomic writes data through a .tmp sibling followed by rename.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := renameWithFallback(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// renameWithFallback renames src to dst, retrying once after removing dst
// for filesystems where rename does not overwrite.
func renameWithFallback(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if removeErr := os.Remove(dst); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
		return err
	}
	return os.Rename(src, dst)
}
