package ics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"conquerx-notifier/internal/domain"
	"conquerx-notifier/internal/infra/metrics"
)

const (
	dateLayout      = "20060102"
	localLayout     = "20060102T150405"
	utcLayout       = "20060102T150405Z"
	instanceIDStamp = "20060102T150405Z"
	maxBodyBytes    = 10 << 20
)

// Source читает встречи из ICS-ленты (например, секретного адреса Google Calendar).
type Source struct {
	url    string
	client *http.Client
	loc    *time.Location
}

var _ domain.CalendarSource = (*Source)(nil)

// NewSource создаёт источник. loc применяется к датам без часового пояса.
func NewSource(url string, client *http.Client, loc *time.Location) *Source {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Source{url: url, client: client, loc: loc}
}

// Upcoming скачивает ленту и разворачивает повторения в окне [from, to].
func (s *Source) Upcoming(ctx context.Context, from, to time.Time) ([]domain.MeetingRecord, error) {
	body, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Expand(body, from, to, s.loc)
}

func (s *Source) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("ics request: %w", err)
	}
	start := time.Now()
	resp, err := s.client.Do(req)
	metrics.ObserveNetworkRequest("ics", "fetch", req.URL.Host, start, err)
	if err != nil {
		return nil, fmt.Errorf("ics fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ics fetch: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

type vevent struct {
	uid         string
	summary     string
	description string
	start       time.Time
	allDay      bool
	rrule       string
	exdates     []time.Time
	recurrence  *time.Time
	cancelled   bool
}

type occurrence struct {
	start   time.Time
	meeting domain.MeetingRecord
}

// Expand разбирает ICS и возвращает встречи, начинающиеся в окне [from, to].
// Экземпляры повторяющихся событий получают ID вида UID_20250314T130000Z.
func Expand(body []byte, from, to time.Time, loc *time.Location) ([]domain.MeetingRecord, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ics parse: %w", err)
	}

	var (
		base      []vevent
		overrides = make(map[string]map[int64]vevent)
	)
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve, loc)
		if err != nil {
			continue
		}
		if ev.recurrence != nil {
			if overrides[ev.uid] == nil {
				overrides[ev.uid] = make(map[int64]vevent)
			}
			overrides[ev.uid][ev.recurrence.Unix()] = ev
			continue
		}
		base = append(base, ev)
	}

	var found []occurrence
	for _, ev := range base {
		if ev.rrule == "" {
			if !ev.cancelled && inWindow(ev.start, from, to) {
				found = append(found, occurrence{start: ev.start, meeting: toMeeting(ev, ev.uid, ev.start)})
			}
			continue
		}
		r, err := rrule.StrToRRule(ev.rrule)
		if err != nil {
			continue
		}
		r.DTStart(ev.start)
		var set rrule.Set
		set.RRule(r)
		for _, ex := range ev.exdates {
			set.ExDate(ex.In(ev.start.Location()))
		}
		for _, occ := range set.Between(from.In(ev.start.Location()), to.In(ev.start.Location()), true) {
			instance := ev
			instanceStart := occ
			if ov, ok := overrides[ev.uid][occ.Unix()]; ok {
				instance = ov
				instanceStart = ov.start
			}
			if instance.cancelled || !inWindow(instanceStart, from, to) {
				continue
			}
			id := ev.uid + "_" + occ.UTC().Format(instanceIDStamp)
			found = append(found, occurrence{start: instanceStart, meeting: toMeeting(instance, id, instanceStart)})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].start.Before(found[j].start) })
	out := make([]domain.MeetingRecord, 0, len(found))
	for _, o := range found {
		out = append(out, o.meeting)
	}
	return out, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (vevent, error) {
	var ev vevent
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, errors.New("missing UID")
	}
	ev.uid = uid.Value
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.summary = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.description = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		ev.cancelled = strings.EqualFold(p.Value, "CANCELLED")
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, errors.New("missing DTSTART")
	}
	start, allDay, err := parseICSTime(dtStart.Value, tzid(dtStart.ICalParameters), loc)
	if err != nil {
		return ev, err
	}
	ev.start, ev.allDay = start, allDay

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.rrule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, _, err := parseICSTime(part, tzid(p.ICalParameters), start.Location()); err == nil {
				ev.exdates = append(ev.exdates, t)
			}
		}
	}
	if p := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); p != nil {
		if t, _, err := parseICSTime(p.Value, tzid(p.ICalParameters), start.Location()); err == nil {
			ev.recurrence = &t
		}
	}
	return ev, nil
}

var textUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";")

func unescapeText(v string) string {
	return textUnescaper.Replace(v)
}

func tzid(params map[string][]string) string {
	if vs, ok := params["TZID"]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func parseICSTime(v, tz string, fallback *time.Location) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false, errors.New("empty time value")
	}
	loc := fallback
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	switch {
	case strings.HasSuffix(v, "Z"):
		t, err := time.Parse(utcLayout, v)
		return t, false, err
	case strings.Contains(v, "T"):
		t, err := time.ParseInLocation(localLayout, v, loc)
		return t, false, err
	default:
		t, err := time.ParseInLocation(dateLayout, v, loc)
		return t, true, err
	}
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func toMeeting(ev vevent, id string, start time.Time) domain.MeetingRecord {
	m := domain.MeetingRecord{ID: id, Title: ev.summary, Description: ev.description}
	if ev.allDay {
		m.Start = start.Format("2006-01-02")
	} else {
		m.Start = start.Format(time.RFC3339)
	}
	return m
}
