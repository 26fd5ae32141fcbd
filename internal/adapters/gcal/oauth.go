package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/people/v1"
)

// ErrNoToken возвращается, если OAuth-токен ещё не получен.
var ErrNoToken = errors.New("google: токен не найден, требуется авторизация")

// Scopes перечисляет права, которые запрашивает бот.
var Scopes = []string{calendar.CalendarReadonlyScope, people.UserinfoProfileScope}

// LoadConfig читает OAuth-клиента из credentials.json (тип installed).
func LoadConfig(credentialsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return cfg, nil
}

// TokenStore хранит токен в JSON-файле.
type TokenStore struct {
	path string
}

// NewTokenStore создаёт хранилище токена.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load возвращает сохранённый токен или ErrNoToken.
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNoToken
	}
	return &tok, nil
}

// Save записывает токен атомарно.
func (s *TokenStore) Save(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

// Auth выдаёт HTTP-клиентов с OAuth-токеном и проводит первичную авторизацию.
type Auth struct {
	cfg   *oauth2.Config
	store *TokenStore
}

// NewAuth создаёт авторизатор.
func NewAuth(cfg *oauth2.Config, store *TokenStore) *Auth {
	return &Auth{cfg: cfg, store: store}
}

// AuthURL возвращает ссылку на страницу согласия.
func (a *Auth) AuthURL() string {
	return a.cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

// Exchange обменивает код авторизации на токен и сохраняет его.
func (a *Auth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	if err := a.store.Save(tok); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return tok, nil
}

// ExchangeCode обменивает код без возврата токена.
func (a *Auth) ExchangeCode(ctx context.Context, code string) error {
	_, err := a.Exchange(ctx, code)
	return err
}

// Authorized сообщает, есть ли сохранённый токен.
func (a *Auth) Authorized() bool {
	_, err := a.store.Load()
	return err == nil
}

// HTTPClient возвращает клиента, который сохраняет обновлённые токены.
func (a *Auth) HTTPClient(ctx context.Context) (*http.Client, error) {
	tok, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	src := &persistingSource{
		base:  a.cfg.TokenSource(ctx, tok),
		store: a.store,
		last:  tok.AccessToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// persistingSource сохраняет токен после каждого обновления.
type persistingSource struct {
	base  oauth2.TokenSource
	store *TokenStore
	mu    sync.Mutex
	last  string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		if err := p.store.Save(tok); err != nil {
			return nil, fmt.Errorf("save refreshed token: %w", err)
		}
	}
	return tok, nil
}
