package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"conquerx-notifier/internal/domain"
)

type ledgerFile struct {
	ContactedUsers []domain.LedgerEntry `json:"contactedUsers"`
}

type unreachableFile struct {
	UnregisteredNumbers []domain.UnreachableEntry `json:"unregisteredNumbers"`
}

// FileLedger хранит журнал уведомлений в JSON-файле. Файл читается один
// раз через Load и целиком перезаписывается после каждого Add.
type FileLedger struct {
	path    string
	mu      sync.Mutex
	entries []domain.LedgerEntry
}

var _ domain.Ledger = (*FileLedger)(nil)

// NewFileLedger создаёт журнал. Перед использованием вызовите Load.
func NewFileLedger(path string) *FileLedger {
	return &FileLedger{path: path}
}

// Load читает файл. Отсутствующий файл означает пустой журнал.
func (l *FileLedger) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var data ledgerFile
	if err := readJSON(l.path, &data); err != nil {
		return fmt.Errorf("чтение журнала: %w", err)
	}
	l.entries = data.ContactedUsers
	return nil
}

// Save записывает журнал на диск.
func (l *FileLedger) Save() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveLocked()
}

// Has проверяет наличие пары получатель/встреча.
func (l *FileLedger) Has(_ context.Context, recipientID, meetingID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.RecipientID == recipientID && e.MeetingID == meetingID {
			return true, nil
		}
	}
	return false, nil
}

// Add добавляет запись и сразу сохраняет файл.
func (l *FileLedger) Add(_ context.Context, entry domain.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if err := l.saveLocked(); err != nil {
		return fmt.Errorf("запись журнала: %w", err)
	}
	return nil
}

func (l *FileLedger) saveLocked() error {
	entries := l.entries
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	return writeJSONAtomic(l.path, ledgerFile{ContactedUsers: entries})
}

// FileUnreachable хранит список недоступных номеров в JSON-файле.
type FileUnreachable struct {
	path    string
	mu      sync.Mutex
	entries []domain.UnreachableEntry
}

var _ domain.UnreachableList = (*FileUnreachable)(nil)

// NewFileUnreachable создаёт список. Перед использованием вызовите Load.
func NewFileUnreachable(path string) *FileUnreachable {
	return &FileUnreachable{path: path}
}

// Load читает файл. Повреждённый файл считается пустым списком.
func (u *FileUnreachable) Load() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	var data unreachableFile
	if err := readJSON(u.path, &data); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			u.entries = nil
			return nil
		}
		return fmt.Errorf("чтение списка недоступных: %w", err)
	}
	u.entries = data.UnregisteredNumbers
	return nil
}

// Add добавляет номер, если его ещё нет в списке.
func (u *FileUnreachable) Add(_ context.Context, entry domain.UnreachableEntry) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, e := range u.entries {
		if e.PhoneNumber == entry.PhoneNumber {
			return false, nil
		}
	}
	u.entries = append(u.entries, entry)
	if err := u.saveLocked(); err != nil {
		return false, fmt.Errorf("запись списка недоступных: %w", err)
	}
	return true, nil
}

// List возвращает копию списка.
func (u *FileUnreachable) List(context.Context) ([]domain.UnreachableEntry, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]domain.UnreachableEntry(nil), u.entries...), nil
}

// Clear очищает список и файл.
func (u *FileUnreachable) Clear(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.entries = nil
	return u.saveLocked()
}

func (u *FileUnreachable) saveLocked() error {
	entries := u.entries
	if entries == nil {
		entries = []domain.UnreachableEntry{}
	}
	return writeJSONAtomic(u.path, unreachableFile{UnregisteredNumbers: entries})
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// writeJSONAtomic пишет во временный файл рядом и переименовывает его поверх path.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".notifier-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
