package gcal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"conquerx-notifier/internal/domain"
	"conquerx-notifier/internal/infra/metrics"
)

// Profile возвращает имя владельца аккаунта через People API.
type Profile struct {
	clients ClientSource
	opts    []option.ClientOption
}

var _ domain.ProfileSource = (*Profile)(nil)

// NewProfile создаёт источник имени отправителя.
func NewProfile(clients ClientSource, opts ...option.ClientOption) *Profile {
	return &Profile{clients: clients, opts: opts}
}

// DisplayName возвращает имя (given name) владельца аккаунта.
func (p *Profile) DisplayName(ctx context.Context) (string, error) {
	httpClient, err := p.clients.HTTPClient(ctx)
	if err != nil {
		return "", err
	}
	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, p.opts...)
	svc, err := people.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("create people service: %w", err)
	}
	start := time.Now()
	person, err := svc.People.Get("people/me").PersonFields("names").Context(ctx).Do()
	metrics.ObserveNetworkRequest("google_people", "people_get", "people/me", start, err)
	if err != nil {
		return "", fmt.Errorf("people/me: %w", err)
	}
	return givenName(person), nil
}

func givenName(p *people.Person) string {
	if p == nil || len(p.Names) == 0 || p.Names[0] == nil {
		return ""
	}
	if name := strings.TrimSpace(p.Names[0].GivenName); name != "" {
		return name
	}
	return strings.TrimSpace(p.Names[0].DisplayName)
}
