package extract

import (
	"errors"
	"regexp"
	"strings"

	"conquerx-notifier/internal/domain"
)

// ErrNoLeadIns возвращается, если не задано ни одной вводной фразы.
var ErrNoLeadIns = errors.New("не задано ни одной вводной фразы")

// CountryResolver резолвит нормализованный номер в страну.
type CountryResolver interface {
	ResolveNumber(phone string) domain.CountryInfo
}

// LeadInStrategy ищет номер телефона сразу после одной из вводных фраз
// ("Enviar mensajes de texto a: +54 9 11 ...").
type LeadInStrategy struct {
	re       *regexp.Regexp
	resolver CountryResolver
}

// NewLeadInStrategy собирает регулярное выражение из списка фраз.
func NewLeadInStrategy(leadIns []string, resolver CountryResolver) (*LeadInStrategy, error) {
	alternatives := make([]string, 0, len(leadIns))
	for _, phrase := range leadIns {
		trimmed := strings.TrimSpace(phrase)
		if trimmed == "" {
			continue
		}
		alternatives = append(alternatives, regexp.QuoteMeta(trimmed))
	}
	if len(alternatives) == 0 {
		return nil, ErrNoLeadIns
	}
	pattern := `(?:` + strings.Join(alternatives, "|") + `):?\s?(\+\d[\d\t\p{Zs}-]*)`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &LeadInStrategy{re: re, resolver: resolver}, nil
}

// Match возвращает номер в исходном виде, если фраза найдена.
func (s *LeadInStrategy) Match(description string) (string, bool) {
	m := s.re.FindStringSubmatch(description)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// HasContact сообщает, содержит ли описание распознаваемый номер.
func (s *LeadInStrategy) HasContact(description string) bool {
	_, ok := s.Match(description)
	return ok
}

// ExtractContact извлекает номер и страну. Отсутствие номера не ошибка:
// возвращается страна unknown и пустой номер.
func (s *LeadInStrategy) ExtractContact(description string) domain.ParsedContact {
	raw, ok := s.Match(description)
	if !ok {
		return domain.ParsedContact{Country: domain.CountryUnknown}
	}
	phone := NormalizePhone(raw)
	info := s.resolver.ResolveNumber(phone)
	return domain.ParsedContact{Country: info.Country, PhoneNumber: phone}
}

// NormalizePhone убирает пробелы и дефисы, оставляя ведущий +.
func NormalizePhone(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	b.WriteByte('+')
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 1 {
		return ""
	}
	return b.String()
}
