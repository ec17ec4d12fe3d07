package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// persisted is the on-disk shape of a saved session.
type persisted struct {
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Identity     *Identity `json:"identity,omitempty"`
}

// Path returns the session file location (~/.huntctl/session.json).
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".huntctl", "session.json"), nil
}

// LoadFrom restores a store from the session file at path. Environment
// variables HUNTCTL_ACCESS_TOKEN / HUNTCTL_REFRESH_TOKEN take priority
// over the file. A missing file yields an unauthenticated store.
func LoadFrom(path string) (*Store, error) {
	s := NewStore()

	if access := os.Getenv("HUNTCTL_ACCESS_TOKEN"); access != "" {
		s.SetCredential(access, os.Getenv("HUNTCTL_REFRESH_TOKEN"))
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	if p.AccessToken != "" {
		s.SetCredential(p.AccessToken, p.RefreshToken)
	}
	if p.Identity != nil {
		s.SetIdentity(p.Identity)
	}
	return s, nil
}

// SaveTo writes the store's current state to path with restricted
// permissions.
func (s *Store) SaveTo(path string) error {
	cred := s.Credential()
	p := persisted{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Identity:     s.Identity(),
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling session: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

// Clear removes the session file at path. A missing file is not an error.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
