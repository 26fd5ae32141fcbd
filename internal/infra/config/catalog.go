package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"conquerx-notifier/internal/domain"
)

const greetingTail = ", encantado de conocerte 😊"

// DefaultCatalog возвращает встроенный каталог программ и фраз.
func DefaultCatalog() domain.Catalog {
	return domain.Catalog{
		LeadIns: []string{
			"Enviar mensajes de texto a",
			"Enviar mensajes de WhatsApp a",
		},
		CancelledPrefix: "Cancelado",
		Programs: []domain.Program{
			{
				Match:    "Formación en Inversión",
				Category: "Formación",
				Greeting: "Hola {name} 👋🏻, soy {sender} 🙋🏻‍♂️, responsable de admisiones de la *Formación en Inversión de ConquerX*" + greetingTail,
			},
			{
				Match:    "Desarrollo Full-Stack",
				Category: "Desarrollo",
				Greeting: "Hola {name} 👋🏻, soy {sender} 🙋🏻‍♂️, responsable de admisiones del *Máster en desarrollo Full Stack de Conquer Blocks*" + greetingTail,
			},
			{
				Match:    "Ciberseguridad",
				Category: "Ciberseguridad",
				Greeting: "Hola {name} 👋🏻, soy {sender} 🙋🏻‍♂️, responsable de admisiones del *Máster en Ciberseguridad de Conquer Blocks*" + greetingTail,
			},
			{
				Match:    "Inteligencia Artificial",
				Category: "Inteligencia",
				Greeting: "Hola {name} 👋🏻, soy {sender} 🙋🏻‍♂️, responsable de admisiones del *Máster en Inteligencia Artificial de Conquer Blocks*" + greetingTail,
			},
		},
		FallbackCategory:  "Otro",
		AgnosticCountries: []string{"Canada/EEUU", "México"},
		Messages: domain.Messages{
			Confirmation:         "Te escribo para confirmar que tenemos agendada una sesión de claridad para el *Día: {day} ({weekday}) - A las {time} horas de {country}*.",
			ConfirmationAgnostic: "Te escribo para confirmar que tenemos agendada una sesión de claridad para el día y horario pactado.",
			Closing:              "Confírmame cuando leas el mensaje para enviarte el enlace de Google Meet y un PDF con información importante 💻",
		},
	}
}

// LoadCatalog читает каталог из YAML. Пустой путь или отсутствующий файл
// дают встроенный каталог; незаполненные поля берутся из него же.
func LoadCatalog(path string) (domain.Catalog, error) {
	def := DefaultCatalog()
	if path == "" {
		return def, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return def, nil
		}
		return domain.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	var cat domain.Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return domain.Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	normalizeCatalog(&cat, def)
	return cat, nil
}

func normalizeCatalog(c *domain.Catalog, def domain.Catalog) {
	if len(c.LeadIns) == 0 {
		c.LeadIns = def.LeadIns
	}
	if c.CancelledPrefix == "" {
		c.CancelledPrefix = def.CancelledPrefix
	}
	if len(c.Programs) == 0 {
		c.Programs = def.Programs
	}
	if c.FallbackCategory == "" {
		c.FallbackCategory = def.FallbackCategory
	}
	if c.AgnosticCountries == nil {
		c.AgnosticCountries = def.AgnosticCountries
	}
	if c.Messages.Confirmation == "" {
		c.Messages.Confirmation = def.Messages.Confirmation
	}
	if c.Messages.ConfirmationAgnostic == "" {
		c.Messages.ConfirmationAgnostic = def.Messages.ConfirmationAgnostic
	}
	if c.Messages.Closing == "" {
		c.Messages.Closing = def.Messages.Closing
	}
}
