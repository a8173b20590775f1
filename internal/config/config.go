package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration document's default name.
const FileName = "smbak.toml"

// Config is one run's backup configuration. It is loaded once per run and
// immutable for the run's duration.
type Config struct {
	InstallPath string `toml:"install_path"`
	RemoteURL   string `toml:"remote_url"`
	AccessToken string `toml:"access_token,omitempty"`

	// TargetName is the subpath inside the remote repository that receives
	// the replicated tree.
	TargetName string `toml:"target_name"`

	// IncludeDirs are the install-path subdirectories to back up.
	IncludeDirs []string `toml:"include_dirs"`
	// ExcludeDirs are additional directory names dropped at any depth.
	// The song library directories are excluded regardless of this list.
	ExcludeDirs []string `toml:"exclude_dirs"`
	// IncludeSongs is honored only as a force-exclude: false (the default)
	// keeps the song library out of the backup, and true cannot bring its
	// content back in. The manifest covers visibility either way.
	IncludeSongs bool `toml:"include_songs"`

	// SavePath and ProfileSavePath override discovery of the two save-data
	// roots.
	SavePath        string `toml:"save_path,omitempty"`
	ProfileSavePath string `toml:"profile_save_path,omitempty"`

	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	// IgnoreFile, when present on disk, is copied into staging as the
	// repository's ignore file.
	IgnoreFile string `toml:"ignore_file,omitempty"`

	// NotifyCommand, when set, is executed on run failure with the notice
	// title and message appended to NotifyArgs.
	NotifyCommand string   `toml:"notify_command,omitempty"`
	NotifyArgs    []string `toml:"notify_args,omitempty"`

	Schedule ScheduleConfig `toml:"schedule"`
	Tasks    []TaskConfig   `toml:"tasks"`
}

// ScheduleConfig feeds the next-run display only; the actual trigger is the
// external scheduler.
type ScheduleConfig struct {
	Expression string `toml:"expression"`
	Timezone   string `toml:"timezone"`
}

// TaskConfig maps a source role to a target subpath under the repository
// target. Recognized sources: "save", "profile".
type TaskConfig struct {
	Name   string `toml:"name"`
	Source string `toml:"source"`
	Target string `toml:"target"`
}

// NewConfig creates a Config with the provided values and default layout.
func NewConfig(installPath, remoteURL, baseDir string) *Config {
	return &Config{
		InstallPath: installPath,
		RemoteURL:   remoteURL,
		TargetName:  "stepmania",
		IncludeDirs: []string{"Themes", "NoteSkins", "Announcers"},
		StagingDir:  filepath.Join(baseDir, "staging"),
		LogDir:      filepath.Join(baseDir, "log"),
		Schedule:    ScheduleConfig{Expression: "0 3 * * *", Timezone: "Local"},
		Tasks: []TaskConfig{
			{Name: "save", Source: "save", Target: "Save"},
			{Name: "profiles", Source: "profile", Target: "LocalProfiles"},
		},
	}
}

// Validate checks the required fields. Failures are configuration errors:
// fatal, surfaced immediately, never retried.
func (c *Config) Validate() error {
	if c.InstallPath == "" {
		return fmt.Errorf("install_path is required")
	}
	if c.RemoteURL == "" {
		return fmt.Errorf("remote_url is required")
	}
	if c.StagingDir == "" {
		return fmt.Errorf("staging_dir is required")
	}
	if c.TargetName == "" {
		return fmt.Errorf("target_name is required")
	}
	for _, t := range c.Tasks {
		switch t.Source {
		case "save", "profile":
		default:
			return fmt.Errorf("task %q: unknown source role %q", t.Name, t.Source)
		}
		if t.Target == "" {
			return fmt.Errorf("task %q: target is required", t.Name)
		}
	}
	return nil
}

// SaveRoot resolves the primary save-data root.
func (c *Config) SaveRoot() string {
	if c.SavePath != "" {
		return c.SavePath
	}
	return filepath.Join(c.InstallPath, "Save")
}

// ProfileRoot resolves the secondary save-data root. Empty when neither an
// override nor a default location applies.
func (c *Config) ProfileRoot() string {
	if c.ProfileSavePath != "" {
		return c.ProfileSavePath
	}
	return filepath.Join(c.InstallPath, "Save", "LocalProfiles")
}

// SourceRoot resolves a task's source role to a directory.
func (c *Config) SourceRoot(task TaskConfig) string {
	switch task.Source {
	case "save":
		return c.SaveRoot()
	case "profile":
		return c.ProfileRoot()
	}
	return ""
}

// SongRoots returns the primary and additional song library roots for the
// manifest.
func (c *Config) SongRoots() (primary, additional string) {
	return filepath.Join(c.InstallPath, "Songs"), filepath.Join(c.InstallPath, "AdditionalSongs")
}

// EffectiveExcludes returns the directory names dropped at any depth. The
// song library names are always present even when include_songs is set.
func (c *Config) EffectiveExcludes() []string {
	out := make([]string, 0, len(c.ExcludeDirs)+2)
	out = append(out, "Songs", "AdditionalSongs")
	for _, d := range c.ExcludeDirs {
		if d == "Songs" || d == "AdditionalSongs" {
			continue
		}
		out = append(out, d)
	}
	return out
}

// AuthenticatedURL embeds the access token into the remote URL for clone
// and push. Without a token the URL passes through untouched.
func (c *Config) AuthenticatedURL() string {
	if c.AccessToken == "" {
		return c.RemoteURL
	}
	u, err := url.Parse(c.RemoteURL)
	if err != nil || u.Host == "" {
		return c.RemoteURL
	}
	if u.User == nil {
		u.User = url.User(c.AccessToken)
	}
	return u.String()
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads and validates a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
