package resolve

import (
	"strconv"
	"testing"
	"time"

	"conquerx-notifier/internal/domain"
)

func TestResolveKnownPrefixes(t *testing.T) {
	r := NewResolver("America/Argentina/Buenos_Aires")
	cases := map[string]string{
		"54":  "Argentina",
		"1":   "Canada/EEUU",
		"503": "El Salvador",
		"598": "Uruguay",
		"52":  "México",
	}
	for prefix, country := range cases {
		info := r.Resolve(prefix)
		if info.Country != country {
			t.Fatalf("префикс %s: ожидали %s, получили %s", prefix, country, info.Country)
		}
		if info.Timezone == "" {
			t.Fatalf("префикс %s: пустой часовой пояс", prefix)
		}
	}
}

func TestResolveUnknownPrefixesNeverFail(t *testing.T) {
	r := NewResolver("America/Argentina/Buenos_Aires")
	for i := 0; i < 1000; i++ {
		for _, prefix := range []string{strconv.Itoa(i), padded(i)} {
			if _, ok := callingCodes[prefix]; ok {
				continue
			}
			info := r.Resolve(prefix)
			if info.Country != domain.CountryUnknown {
				t.Fatalf("префикс %s: ожидали unknown, получили %s", prefix, info.Country)
			}
			if info.Timezone != "America/Argentina/Buenos_Aires" {
				t.Fatalf("префикс %s: ожидали пояс по умолчанию, получили %s", prefix, info.Timezone)
			}
		}
	}
	for _, junk := range []string{"", "abc", "+54", "5412"} {
		if info := r.Resolve(junk); info.Known() {
			t.Fatalf("ввод %q не должен резолвиться", junk)
		}
	}
}

func padded(i int) string {
	s := strconv.Itoa(i)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

func TestResolveNumberLongestPrefix(t *testing.T) {
	r := NewResolver("UTC")
	cases := []struct {
		phone   string
		country string
		zone    string
	}{
		{"+5491123456789", "Argentina", "America/Argentina/Buenos_Aires"},
		{"+50371234567", "El Salvador", "America/El_Salvador"},
		{"+12125550100", "Canada/EEUU", "America/New_York"},
		{"+13105550100", "Canada/EEUU", "America/Los_Angeles"},
		{"+19995550100", "Canada/EEUU", "America/New_York"},
		{"+5215512345678", "México", "America/Mexico_City"},
		{"+526641234567", "México", "America/Tijuana"},
		{"+5592912345678", "Brasil", "America/Manaus"},
		{"+5511912345678", "Brasil", "America/Sao_Paulo"},
		{"+8613800000000", domain.CountryUnknown, "UTC"},
	}
	for _, tc := range cases {
		info := r.ResolveNumber(tc.phone)
		if info.Country != tc.country || info.Timezone != tc.zone {
			t.Fatalf("%s: ожидали %s/%s, получили %s/%s", tc.phone, tc.country, tc.zone, info.Country, info.Timezone)
		}
	}
}

func TestLocationLoadsEveryCountryZone(t *testing.T) {
	r := NewResolver("UTC")
	for country, zone := range countryZones {
		if _, err := r.Location(domain.CountryInfo{Country: country, Timezone: zone}); err != nil {
			t.Fatalf("%s: не удалось загрузить пояс %s: %v", country, zone, err)
		}
	}
	for country, table := range areaZones {
		for area, zone := range table {
			if _, err := time.LoadLocation(zone); err != nil {
				t.Fatalf("%s/%s: неизвестный пояс %s", country, area, zone)
			}
		}
	}
}

func TestNormalizeTimezone(t *testing.T) {
	got, err := NormalizeTimezone(" america/argentina/buenos aires ")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if got != "America/Argentina/Buenos_Aires" {
		t.Fatalf("unexpected zone %q", got)
	}
	if _, err := NormalizeTimezone("Mars/Olympus"); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}

func TestNewResolverInvalidFallback(t *testing.T) {
	r := NewResolver("not a zone")
	if info := r.Resolve("999"); info.Timezone != "UTC" {
		t.Fatalf("ожидали UTC, получили %s", info.Timezone)
	}
}
