package config

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestConfigReadWrite(t *testing.T) {
	cfg := NewConfig("/opt/stepmania", "https://example.com/user/backup.git", "/var/lib/smbak")
	cfg.AccessToken = "tok123"
	cfg.ExcludeDirs = []string{"Cache"}

	var buf bytes.Buffer
	m := &Manager{}
	if err := m.Write(&buf, cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: ""},
		{
			name:    "missing install path",
			mutate:  func(c *Config) { c.InstallPath = "" },
			wantErr: "install_path",
		},
		{
			name:    "missing remote",
			mutate:  func(c *Config) { c.RemoteURL = "" },
			wantErr: "remote_url",
		},
		{
			name:    "unknown task source",
			mutate:  func(c *Config) { c.Tasks[0].Source = "cloud" },
			wantErr: "unknown source role",
		},
		{
			name:    "empty task target",
			mutate:  func(c *Config) { c.Tasks[0].Target = "" },
			wantErr: "target is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("/opt/stepmania", "https://example.com/b.git", t.TempDir())
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveExcludes(t *testing.T) {
	cfg := NewConfig("/opt/sm", "https://example.com/b.git", "/tmp/smbak")
	cfg.ExcludeDirs = []string{"Cache", "Songs"}
	cfg.IncludeSongs = true

	got := cfg.EffectiveExcludes()
	want := []string{"Songs", "AdditionalSongs", "Cache"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EffectiveExcludes() = %v, want %v", got, want)
	}
}

func TestAuthenticatedURL(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		token string
		want  string
	}{
		{
			name: "no token passes through",
			url:  "https://example.com/user/backup.git",
			want: "https://example.com/user/backup.git",
		},
		{
			name:  "token embedded as userinfo",
			url:   "https://example.com/user/backup.git",
			token: "tok123",
			want:  "https://tok123@example.com/user/backup.git",
		},
		{
			name:  "existing userinfo kept",
			url:   "https://me@example.com/user/backup.git",
			token: "tok123",
			want:  "https://me@example.com/user/backup.git",
		},
		{
			name:  "non-url passes through",
			url:   "/srv/git/backup.git",
			token: "tok123",
			want:  "/srv/git/backup.git",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{RemoteURL: tt.url, AccessToken: tt.token}
			if got := cfg.AuthenticatedURL(); got != tt.want {
				t.Errorf("AuthenticatedURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSourceRoots(t *testing.T) {
	cfg := NewConfig("/opt/sm", "https://example.com/b.git", "/tmp/smbak")

	if got, want := cfg.SaveRoot(), filepath.Join("/opt/sm", "Save"); got != want {
		t.Errorf("SaveRoot() = %q, want %q", got, want)
	}
	if got, want := cfg.ProfileRoot(), filepath.Join("/opt/sm", "Save", "LocalProfiles"); got != want {
		t.Errorf("ProfileRoot() = %q, want %q", got, want)
	}

	cfg.SavePath = "/data/save"
	cfg.ProfileSavePath = "/data/profiles"
	if got := cfg.SaveRoot(); got != "/data/save" {
		t.Errorf("SaveRoot() override = %q, want /data/save", got)
	}
	if got := cfg.SourceRoot(TaskConfig{Source: "profile"}); got != "/data/profiles" {
		t.Errorf("SourceRoot(profile) = %q, want /data/profiles", got)
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", FileName)
	cfg := NewConfig("/opt/sm", "https://example.com/b.git", dir)

	if err := Init(path, cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file missing after Init: %v", err)
	}

	if err := Init(path, cfg); err == nil {
		t.Error("Init() on existing file succeeded, want error")
	}

	got, err := ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile() error = %v", err)
	}
	if got.InstallPath != cfg.InstallPath {
		t.Errorf("InstallPath = %q, want %q", got.InstallPath, cfg.InstallPath)
	}
}

func TestLocate(t *testing.T) {
	t.Run("explicit must exist", func(t *testing.T) {
		if _, err := Locate(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("Locate() with missing explicit path succeeded, want error")
		}
	})

	t.Run("explicit wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), FileName)
		if err := os.WriteFile(path, []byte(""), 0644); err != nil {
			t.Fatal(err)
		}
		got, err := Locate(path)
		if err != nil {
			t.Fatalf("Locate() error = %v", err)
		}
		if got != path {
			t.Errorf("Locate() = %q, want %q", got, path)
		}
	})

	t.Run("first existing candidate wins", func(t *testing.T) {
		dir := t.TempDir()
		second := filepath.Join(dir, "user", FileName)
		if err := os.MkdirAll(filepath.Dir(second), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(second, []byte(""), 0644); err != nil {
			t.Fatal(err)
		}
		chain := []resolver{
			func() (string, error) { return filepath.Join(dir, "exe", FileName), nil },
			func() (string, error) { return second, nil },
		}
		got, err := locate(chain)
		if err != nil {
			t.Fatalf("locate() error = %v", err)
		}
		if got != second {
			t.Errorf("locate() = %q, want %q", got, second)
		}
	})

	t.Run("none found", func(t *testing.T) {
		chain := []resolver{
			func() (string, error) { return filepath.Join(t.TempDir(), FileName), nil },
		}
		if _, err := locate(chain); err == nil {
			t.Error("locate() with no candidates succeeded, want error")
		}
	})
}
