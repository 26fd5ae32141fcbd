package meeting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"conquerx-notifier/internal/domain"
)

// ErrInvalidMeeting возвращается для встреч, не прошедших валидацию.
var ErrInvalidMeeting = errors.New("встреча не прошла валидацию")

// ErrUnreachable возвращается, если номер не зарегистрирован в мессенджере.
var ErrUnreachable = errors.New("номер не зарегистрирован в мессенджере")

const dateLayout = "2006-01-02"

var weekdays = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

// ContactExtractor извлекает номер и страну из описания.
type ContactExtractor interface {
	ContactDetector
	ExtractContact(description string) domain.ParsedContact
}

// ZoneResolver определяет часовой пояс по номеру.
type ZoneResolver interface {
	ResolveNumber(phone string) domain.CountryInfo
	Location(info domain.CountryInfo) (*time.Location, error)
}

// ReachabilityChecker проверяет номер в мессенджере.
type ReachabilityChecker interface {
	CheckReachable(ctx context.Context, phoneNumber string) (domain.Reachability, error)
}

// Prepared содержит результат чистой подготовки встречи до проверки номера.
type Prepared struct {
	Meeting      domain.MeetingRecord
	Contact      domain.ParsedContact
	AttendeeName string
	Start        time.Time
}

// Normalizer превращает встречу в событие, готовое к отправке.
// Prepare и Finalize не выполняют ввода-вывода.
type Normalizer struct {
	validator *Validator
	contacts  ContactExtractor
	zones     ZoneResolver
	catalog   domain.Catalog
	serverLoc *time.Location
}

// NewNormalizer создаёт нормализатор. serverLoc используется для дат без времени.
func NewNormalizer(contacts ContactExtractor, zones ZoneResolver, catalog domain.Catalog, serverLoc *time.Location) *Normalizer {
	if serverLoc == nil {
		serverLoc = time.UTC
	}
	return &Normalizer{
		validator: NewValidator(contacts, catalog),
		contacts:  contacts,
		zones:     zones,
		catalog:   catalog,
		serverLoc: serverLoc,
	}
}

// IsValid делегирует проверку валидатору.
func (n *Normalizer) IsValid(m domain.MeetingRecord) bool {
	return n.validator.IsValid(m)
}

// Prepare валидирует встречу, извлекает контакт, имя участника и время начала.
func (n *Normalizer) Prepare(m domain.MeetingRecord) (Prepared, error) {
	if !n.validator.IsValid(m) {
		return Prepared{}, ErrInvalidMeeting
	}
	contact := n.contacts.ExtractContact(m.Description)
	if !contact.Found() {
		return Prepared{}, ErrInvalidMeeting
	}
	start, err := n.parseStart(m.Start)
	if err != nil {
		return Prepared{}, err
	}
	return Prepared{
		Meeting:      m,
		Contact:      contact,
		AttendeeName: n.attendeeName(m.Title),
		Start:        start,
	}, nil
}

// Finalize пересчитывает время в поясе получателя и собирает приветствие.
func (n *Normalizer) Finalize(p Prepared, sender string, reach domain.Reachability) (domain.NormalizedEvent, error) {
	if !reach.Exists || reach.ID == "" {
		return domain.NormalizedEvent{}, ErrUnreachable
	}
	info := n.zones.ResolveNumber(p.Contact.PhoneNumber)
	loc, err := n.zones.Location(info)
	if err != nil {
		return domain.NormalizedEvent{}, fmt.Errorf("часовой пояс %q: %w", info.Timezone, err)
	}
	local := p.Start.In(loc)
	program := n.classify(p.Meeting.Title)

	return domain.NormalizedEvent{
		Day:          strconv.Itoa(local.Day()),
		Weekday:      weekdays[local.Weekday()],
		LocalTime:    local.Format("15:04"),
		Description:  p.Meeting.Description,
		Title:        p.Meeting.Title,
		AttendeeName: p.AttendeeName,
		PhoneNumber:  p.Contact.PhoneNumber,
		RecipientID:  reach.ID,
		MeetingID:    p.Meeting.ID,
		Country:      info.Country,
		Category:     program.Category,
		MessageBody:  renderGreeting(program.Greeting, p.AttendeeName, sender),
	}, nil
}

// Normalize выполняет полный цикл: Prepare, проверка номера, Finalize.
func (n *Normalizer) Normalize(ctx context.Context, m domain.MeetingRecord, sender string, checker ReachabilityChecker) (domain.NormalizedEvent, error) {
	prepared, err := n.Prepare(m)
	if err != nil {
		return domain.NormalizedEvent{}, err
	}
	reach, err := checker.CheckReachable(ctx, prepared.Contact.PhoneNumber)
	if err != nil {
		return domain.NormalizedEvent{}, fmt.Errorf("проверка номера %s: %w", prepared.Contact.PhoneNumber, err)
	}
	return n.Finalize(prepared, sender, reach)
}

func (n *Normalizer) parseStart(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, n.serverLoc)
	if err != nil {
		return time.Time{}, fmt.Errorf("время начала %q: %w", raw, err)
	}
	return t, nil
}

func (n *Normalizer) classify(title string) domain.Program {
	if p, ok := n.validator.program(title); ok {
		return p
	}
	return domain.Program{Category: n.catalog.FallbackCategory}
}

// attendeeName берёт часть заголовка до первого ":". Если эта часть сама
// является названием программы ("Desarrollo Full-Stack: Ana"), берётся
// первый сегмент без названия программы.
func (n *Normalizer) attendeeName(title string) string {
	segments := strings.Split(title, ":")
	name := segments[0]
	if n.mentionsProgram(name) {
		for _, segment := range segments[1:] {
			trimmed := strings.TrimSpace(segment)
			if trimmed != "" && !n.mentionsProgram(trimmed) {
				name = trimmed
				break
			}
		}
	}
	return formatName(strings.TrimSpace(name))
}

func (n *Normalizer) mentionsProgram(s string) bool {
	_, ok := n.validator.program(s)
	return ok || (n.catalog.CancelledPrefix != "" && strings.TrimSpace(s) == n.catalog.CancelledPrefix)
}

func formatName(name string) string {
	if name == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + strings.ToLower(name[size:])
}

func renderGreeting(template, name, sender string) string {
	return strings.NewReplacer("{name}", name, "{sender}", sender).Replace(template)
}
