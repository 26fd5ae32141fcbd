package resolve

import (
	"strings"
	"time"
	_ "time/tzdata"

	"conquerx-notifier/internal/domain"
)

// Resolver определяет страну и часовой пояс по телефонному коду.
type Resolver struct {
	fallbackZone string
}

// NewResolver создаёт резолвер. fallbackZone используется для неизвестных стран.
func NewResolver(fallbackZone string) *Resolver {
	zone, err := NormalizeTimezone(fallbackZone)
	if err != nil {
		zone = "UTC"
	}
	return &Resolver{fallbackZone: zone}
}

// Resolve ищет страну по префиксу из 1–3 цифр. Неизвестный префикс даёт
// domain.CountryUnknown и пояс по умолчанию.
func (r *Resolver) Resolve(prefix string) domain.CountryInfo {
	if len(prefix) == 0 || len(prefix) > 3 || !isDigits(prefix) {
		return r.unknown()
	}
	country, ok := callingCodes[prefix]
	if !ok {
		return r.unknown()
	}
	return domain.CountryInfo{CallingCode: prefix, Country: country, Timezone: countryZones[country]}
}

// ResolveNumber резолвит нормализованный номер (+ и цифры): выбирает самый
// длинный совпавший код страны и уточняет пояс по коду региона.
func (r *Resolver) ResolveNumber(phone string) domain.CountryInfo {
	digits := onlyDigits(phone)
	for n := 3; n >= 1; n-- {
		if len(digits) < n {
			continue
		}
		info := r.Resolve(digits[:n])
		if !info.Known() {
			continue
		}
		if zone := areaZone(info.Country, digits[n:]); zone != "" {
			info.Timezone = zone
		}
		return info
	}
	return r.unknown()
}

// Location возвращает *time.Location для результата резолва.
func (r *Resolver) Location(info domain.CountryInfo) (*time.Location, error) {
	zone := info.Timezone
	if zone == "" {
		zone = r.fallbackZone
	}
	return time.LoadLocation(zone)
}

func (r *Resolver) unknown() domain.CountryInfo {
	return domain.CountryInfo{Country: domain.CountryUnknown, Timezone: r.fallbackZone}
}

func areaZone(country, national string) string {
	table, ok := areaZones[country]
	if !ok {
		return ""
	}
	// Старый мобильный формат Мексики: +52 1 XX...
	if country == "México" && len(national) > 10 && national[0] == '1' {
		national = national[1:]
	}
	for n := 3; n >= 2; n-- {
		if len(national) < n {
			continue
		}
		if zone, ok := table[national[:n]]; ok {
			return zone
		}
	}
	return ""
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
