package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Identity is the committer/author identity stored in repository config.
type Identity struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// String renders the identity in "Name <email>" form, or "" when unset.
func (id Identity) String() string {
	if strings.TrimSpace(id.Name) == "" {
		return ""
	}
	if strings.TrimSpace(id.Email) == "" {
		return id.Name
	}
	return fmt.Sprintf("%s <%s>", id.Name, id.Email)
}

// Config stores repository-local settings: the user identity used for new
// commits and named remotes.
type Config struct {
	User    Identity          `toml:"user"`
	Remotes map[string]string `toml:"remotes,omitempty"`
}

func (r *Repo) configPath() string {
	return filepath.Join(r.GritDir, "config.toml")
}

// ReadConfig reads .grit/config.toml. Missing config returns an empty config.
func (r *Repo) ReadConfig() (*Config, error) {
	data, err := os.ReadFile(r.configPath())
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{Remotes: make(map[string]string)}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("read config: unmarshal: %w", err)
	}
	if cfg.Remotes == nil {
		cfg.Remotes = make(map[string]string)
	}
	return &cfg, nil
}

// WriteConfig atomically writes .grit/config.toml.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Remotes == nil {
		cfg.Remotes = make(map[string]string)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(r.GritDir, ".config-tmp-*")
	if err != nil {
		return fmt.Errorf("write config: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write config: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: close: %w", err)
	}
	if err := os.Rename(tmpName, r.configPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write config: rename: %w", err)
	}
	return nil
}

// SetUserIdentity stores the identity used as author/committer for new
// commits.
func (r *Repo) SetUserIdentity(name, email string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("set identity: name is required")
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	cfg.User = Identity{Name: name, Email: strings.TrimSpace(email)}
	return r.WriteConfig(cfg)
}

// UserIdentity returns the configured commit identity, which may be empty.
func (r *Repo) UserIdentity() (Identity, error) {
	cfg, err := r.ReadConfig()
	if err != nil {
		return Identity{}, err
	}
	return cfg.User, nil
}

// SetRemote stores/updates a named remote URL in repository config.
func (r *Repo) SetRemote(name, remoteURL string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("set remote: remote name is required")
	}
	remoteURL = strings.TrimSpace(remoteURL)
	if remoteURL == "" {
		return fmt.Errorf("set remote: remote URL is required")
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return err
	}
	cfg.Remotes[name] = remoteURL
	return r.WriteConfig(cfg)
}

// RemoteURL returns the configured URL for the given remote name.
func (r *Repo) RemoteURL(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("remote name is required")
	}

	cfg, err := r.ReadConfig()
	if err != nil {
		return "", err
	}
	url, ok := cfg.Remotes[name]
	if !ok || strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("remote %q is not configured", name)
	}
	return url, nil
}
