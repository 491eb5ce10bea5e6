package system

import (
	"embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// PackageTargets names the system packages the uninstaller may remove.
type PackageTargets struct {
	Indicator      string `yaml:"indicator"`
	PythonBindings string `yaml:"python_bindings"`
	VPNClient      string `yaml:"vpn_client"`
}

// Manifest describes the filesystem and package targets of an uninstall run.
type Manifest struct {
	// AutostartEntry is the desktop entry path, relative to the user home.
	AutostartEntry string `yaml:"autostart_entry"`
	// InstallDir is the system-wide installation directory.
	InstallDir string         `yaml:"install_dir"`
	Packages   PackageTargets `yaml:"packages"`
	// VPNCommand is the VPN client binary used for the disconnect step.
	VPNCommand string `yaml:"vpn_command"`
	// JournalDir is the run journal directory, relative to the user home.
	JournalDir string `yaml:"journal_dir"`

	homeDir string
}

//go:embed base-manifest.yaml
var embeddedBaseManifest embed.FS

// BaseManifest returns the embedded default manifest.
func BaseManifest() (*Manifest, error) {
	data, err := embeddedBaseManifest.ReadFile("base-manifest.yaml")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read embedded base manifest")
	}
	return decodeManifest(data)
}

// LoadManifest loads a manifest override from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read manifest file: %s", path)
	}
	return decodeManifest(data)
}

func decodeManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, errors.Wrap(err, "failed to decode manifest")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve user home directory")
	}
	m.homeDir = home

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that every uninstall target is populated.
func (m *Manifest) Validate() error {
	checks := map[string]string{
		"autostart_entry":          m.AutostartEntry,
		"install_dir":              m.InstallDir,
		"packages.indicator":       m.Packages.Indicator,
		"packages.python_bindings": m.Packages.PythonBindings,
		"packages.vpn_client":      m.Packages.VPNClient,
		"vpn_command":              m.VPNCommand,
		"journal_dir":              m.JournalDir,
	}

	for field, value := range checks {
		if strings.TrimSpace(value) == "" {
			return errors.Errorf("manifest field %s must not be empty", field)
		}
	}

	if !filepath.IsAbs(m.InstallDir) {
		return errors.Errorf("install_dir must be absolute: %s", m.InstallDir)
	}

	return nil
}

// AutostartEntryPath returns the absolute path of the autostart desktop entry.
func (m *Manifest) AutostartEntryPath() string {
	return filepath.Join(m.homeDir, m.AutostartEntry)
}

// JournalPath returns the absolute path of the run journal database file.
func (m *Manifest) JournalPath() string {
	return filepath.Join(m.homeDir, m.JournalDir, "uninstall.db")
}

// SetHomeDir overrides the resolved home directory. Used by tests.
func (m *Manifest) SetHomeDir(dir string) {
	m.homeDir = dir
}
