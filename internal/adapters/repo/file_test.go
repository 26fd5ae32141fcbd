package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"conquerx-notifier/internal/domain"
)

func TestFileLedgerPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contactedUsers.json")

	ledger := NewFileLedger(path)
	if err := ledger.Load(); err != nil {
		t.Fatalf("отсутствующий файл не должен давать ошибку: %v", err)
	}
	entry := domain.LedgerEntry{RecipientID: "5491123456789@s.whatsapp.net", MeetingID: "evt-1"}
	if err := ledger.Add(ctx, entry); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	reloaded := NewFileLedger(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	ok, err := reloaded.Has(ctx, entry.RecipientID, entry.MeetingID)
	if err != nil || !ok {
		t.Fatalf("ожидали запись после перезагрузки: %v %v", ok, err)
	}
	if ok, _ := reloaded.Has(ctx, entry.RecipientID, "evt-2"); ok {
		t.Fatalf("другая встреча не должна считаться уведомлённой")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !strings.Contains(string(raw), `"contactedUsers"`) || !strings.Contains(string(raw), `"recipientId": "5491123456789@s.whatsapp.net"`) {
		t.Fatalf("unexpected file content %s", raw)
	}
}

func TestFileUnreachableDedupAndClear(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "unregisteredNumbers.json")
	list := NewFileUnreachable(path)
	if err := list.Load(); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}

	added, err := list.Add(ctx, domain.UnreachableEntry{PhoneNumber: "+573001234567", Title: "Luis: Ciberseguridad"})
	if err != nil || !added {
		t.Fatalf("ожидали добавление: %v %v", added, err)
	}
	added, err = list.Add(ctx, domain.UnreachableEntry{PhoneNumber: "+573001234567", Title: "Luis: Ciberseguridad (2)"})
	if err != nil || added {
		t.Fatalf("дубликат не должен добавляться: %v %v", added, err)
	}

	reloaded := NewFileUnreachable(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	entries, _ := reloaded.List(ctx)
	if len(entries) != 1 || entries[0].Title != "Luis: Ciberseguridad" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	if err := reloaded.Clear(ctx); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), `"unregisteredNumbers": []`) {
		t.Fatalf("ожидали пустой список в файле, получили %s", raw)
	}
}

func TestFileUnreachableCorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unregisteredNumbers.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	list := NewFileUnreachable(path)
	if err := list.Load(); err != nil {
		t.Fatalf("повреждённый файл должен читаться как пустой: %v", err)
	}
	entries, _ := list.List(context.Background())
	if len(entries) != 0 {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), StoreConfig{Backend: "sqlite"})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("ожидали ErrUnknownBackend, получили %v", err)
	}
}

func TestOpenFileBackend(t *testing.T) {
	dir := t.TempDir()
	stores, err := Open(context.Background(), StoreConfig{
		Backend:         BackendFile,
		LedgerFile:      filepath.Join(dir, "contactedUsers.json"),
		UnreachableFile: filepath.Join(dir, "unregisteredNumbers.json"),
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	defer stores.Close()
	if _, ok := stores.Ledger.(*FileLedger); !ok {
		t.Fatalf("ожидали файловый журнал, получили %T", stores.Ledger)
	}
}
