package pkgmgr

import (
	"strings"

	apperrors "nordvpn-uninstall/internal/errors"
)

// Manager removes software packages via apt/dpkg.
type Manager struct {
	exec Executor
}

// NewManager constructs a Manager with the provided executor (defaults to SystemExecutor).
func NewManager(exec Executor) *Manager {
	if exec == nil {
		exec = SystemExecutor{}
	}
	return &Manager{exec: exec}
}

// Remove purges a package without prompting apt for confirmation.
func (m *Manager) Remove(name string) error {
	if err := m.exec.Run("apt", "remove", "--purge", "-y", name); err != nil {
		return aptError("pkgmgr.remove", "apt remove failed", err, apperrors.Metadata{
			"package": name,
		})
	}
	return nil
}

// Installed reports whether the named package is currently installed.
func (m *Manager) Installed(name string) (bool, error) {
	installed, err := m.installedPackageSet()
	if err != nil {
		return false, err
	}
	_, exists := installed[name]
	return exists, nil
}

func (m *Manager) installedPackageSet() (map[string]struct{}, error) {
	output, err := m.exec.Output("dpkg-query", "-W", "-f=${binary:Package}\n")
	if err != nil {
		return nil, aptError("pkgmgr.installedPackageSet", "dpkg-query failed", err, apperrors.Metadata{
			"command": "dpkg-query -W",
		})
	}

	result := make(map[string]struct{})
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	for _, line := range lines {
		pkg := strings.TrimSpace(line)
		if pkg == "" {
			continue
		}
		result[pkg] = struct{}{}
		if idx := strings.Index(pkg, ":"); idx > 0 {
			result[pkg[:idx]] = struct{}{}
		}
	}
	return result, nil
}

func aptError(operation, message string, err error, metadata apperrors.Metadata) *apperrors.AppError {
	return apperrors.DependencyError(apperrors.CodeDependencyGeneric, message, err).
		WithModule("pkgmgr").
		WithOperation(operation).
		WithFields(metadata)
}
