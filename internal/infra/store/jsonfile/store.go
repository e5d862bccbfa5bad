// Package jsonfile keeps the ledger in three JSON documents, using the same
// layout as the legacy bot: users.json (object keyed by user id),
// admins.json (array of ids) and channels.json (array of handles).
package jsonfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"telegram-reward-bot/internal/infra/logging"
)

const (
	UsersFile    = "users.json"
	AdminsFile   = "admins.json"
	ChannelsFile = "channels.json"
)

// Store serializes every read-modify-write on its files behind one mutex.
// Writes go to a temp file that is renamed over the target, so a crash
// never leaves a half-written document.
type Store struct {
	dir string
	mu  sync.Mutex
	log *zerolog.Logger
	now func() time.Time
}

func Open(dir string, logger *zerolog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("jsonfile: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create dir: %w", err)
	}
	return &Store{
		dir: dir,
		log: logging.Component(logger, "JSONFileStore"),
		now: time.Now,
	}, nil
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) Accounts() *AccountRepo { return &AccountRepo{s: s} }
func (s *Store) Admins() *AdminRepo     { return &AdminRepo{s: s} }
func (s *Store) Channels() *ChannelRepo { return &ChannelRepo{s: s} }

func (s *Store) path(name string) string { return filepath.Join(s.dir, name) }

// load decodes name into v. A missing or empty file leaves v untouched.
// A document that does not decode is moved aside and treated as empty;
// other I/O errors are returned.
func (s *Store) load(name string, v any) error {
	p := s.path(name)
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		aside := p + ".corrupt-" + strconv.FormatInt(s.now().Unix(), 10)
		if rerr := os.Rename(p, aside); rerr != nil {
			s.log.Error().Err(rerr).Str("file", p).Msg("could not move corrupt file aside")
			return fmt.Errorf("decode %s: %w", name, err)
		}
		s.log.Error().Err(err).Str("file", p).Str("moved_to", aside).Msg("corrupt store file, starting empty")
		return nil
	}
	return nil
}

func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.path(name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
