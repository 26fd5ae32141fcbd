package meeting

import (
	"strings"

	"conquerx-notifier/internal/domain"
)

// ContactDetector проверяет наличие номера в описании встречи.
type ContactDetector interface {
	HasContact(description string) bool
}

// Validator решает, нужно ли обрабатывать встречу.
type Validator struct {
	contacts  ContactDetector
	programs  []domain.Program
	cancelled string
}

// NewValidator создаёт валидатор по каталогу программ.
func NewValidator(contacts ContactDetector, catalog domain.Catalog) *Validator {
	return &Validator{contacts: contacts, programs: catalog.Programs, cancelled: catalog.CancelledPrefix}
}

// IsValid возвращает true, если в описании есть номер, заголовок содержит
// название программы и не начинается с отметки об отмене.
func (v *Validator) IsValid(m domain.MeetingRecord) bool {
	if v.isCancelled(m.Title) {
		return false
	}
	if _, ok := v.program(m.Title); !ok {
		return false
	}
	return v.contacts.HasContact(m.Description)
}

func (v *Validator) isCancelled(title string) bool {
	return v.cancelled != "" && strings.HasPrefix(strings.TrimSpace(title), v.cancelled)
}

func (v *Validator) program(title string) (domain.Program, bool) {
	for _, p := range v.programs {
		if p.Match != "" && strings.Contains(title, p.Match) {
			return p, true
		}
	}
	return domain.Program{}, false
}
