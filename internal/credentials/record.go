package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/trashdash/trashdash-go/internal/models"
)

const configDirName = "trashdash"

// SessionRecord is the persisted slice of session state that survives
// process restarts alongside the keyring token: the resolved user, the
// refresh token and whether the session was authenticated when saved.
type SessionRecord struct {
	User            *models.User `json:"user"`
	RefreshToken    string       `json:"refreshToken,omitempty"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// RecordStore persists one SessionRecord per app as a JSON file.
type RecordStore struct {
	dir string
}

// NewRecordStore creates a record store rooted at dir. An empty dir means
// the user config directory (~/.config/trashdash on Linux).
func NewRecordStore(dir string) *RecordStore {
	return &RecordStore{dir: dir}
}

func (s *RecordStore) recordPath(app string) (string, error) {
	dir := s.dir
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve user config directory: %w", err)
		}
		dir = filepath.Join(base, configDirName)
	}
	return filepath.Join(dir, fmt.Sprintf("%s-session.json", app)), nil
}

// Load reads the session record for an app. A missing file is not an
// error: it returns an empty record, same as a fresh install.
func (s *RecordStore) Load(app string) (*SessionRecord, error) {
	path, err := s.recordPath(app)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &SessionRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read session record: %w", err)
	}

	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse session record: %w", err)
	}
	return &rec, nil
}

// Save writes the session record for an app, creating the directory if needed.
func (s *RecordStore) Save(app string, rec *SessionRecord) error {
	path, err := s.recordPath(app)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	// 0600: the record carries the refresh token
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session record: %w", err)
	}
	return nil
}

// Delete removes the session record for an app. Deleting a record that
// does not exist is a no-op.
func (s *RecordStore) Delete(app string) error {
	path, err := s.recordPath(app)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session record: %w", err)
	}
	return nil
}
