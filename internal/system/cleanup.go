package system

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	apperrors "nordvpn-uninstall/internal/errors"
)

// Cleaner removes the indicator's filesystem artifacts.
type Cleaner struct {
	manifest *Manifest
}

// NewCleaner constructs a Cleaner bound to the supplied manifest.
func NewCleaner(manifest *Manifest) *Cleaner {
	return &Cleaner{manifest: manifest}
}

// RemoveAutostartEntry deletes the autostart desktop entry.
// A missing entry is treated as success so repeated runs stay clean.
func (c *Cleaner) RemoveAutostartEntry() error {
	path := c.manifest.AutostartEntryPath()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fsError("system.removeAutostartEntry", "failed to remove autostart entry", err, apperrors.Metadata{
			"path": path,
		})
	}
	return nil
}

// RemoveInstallDir recursively deletes the installation directory.
// RemoveAll already reports success for missing paths.
func (c *Cleaner) RemoveInstallDir() error {
	path := c.manifest.InstallDir

	if err := os.RemoveAll(path); err != nil {
		return fsError("system.removeInstallDir", "failed to remove installation directory", err, apperrors.Metadata{
			"path": path,
		})
	}
	return nil
}

// CanRemoveInstallDir reports whether the current user may delete the
// installation directory. The answer is advisory: removal is attempted
// regardless, this only drives an upfront warning.
func (c *Cleaner) CanRemoveInstallDir() bool {
	path := c.manifest.InstallDir

	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return true
	}

	return unix.Access(filepath.Dir(path), unix.W_OK) == nil
}

func fsError(operation, message string, err error, metadata apperrors.Metadata) *apperrors.AppError {
	return apperrors.FilesystemError(apperrors.CodeFilesystemGeneric, message, err).
		WithModule("system").
		WithOperation(operation).
		WithFields(metadata)
}
