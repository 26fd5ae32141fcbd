package domain

// CountryUnknown возвращается, когда префикс не найден в таблице кодов.
const CountryUnknown = "unknown"

// MeetingRecord описывает встречу из календаря.
type MeetingRecord struct {
	ID          string
	Title       string
	Description string
	// Start хранит dateTime (RFC3339) или date (YYYY-MM-DD) в исходном виде.
	Start string
}

// ParsedContact содержит номер и страну, извлечённые из описания встречи.
type ParsedContact struct {
	Country     string
	PhoneNumber string
}

// Found сообщает, был ли найден номер.
func (c ParsedContact) Found() bool {
	return c.PhoneNumber != ""
}

// CountryInfo описывает результат резолва телефонного кода.
type CountryInfo struct {
	CallingCode string
	Country     string
	Timezone    string
}

// Known сообщает, удалось ли определить страну.
func (c CountryInfo) Known() bool {
	return c.Country != "" && c.Country != CountryUnknown
}

// NormalizedEvent описывает встречу, готовую к отправке уведомления.
type NormalizedEvent struct {
	Day          string
	Weekday      string
	LocalTime    string
	Description  string
	Title        string
	AttendeeName string
	PhoneNumber  string
	RecipientID  string
	MeetingID    string
	Country      string
	Category     string
	MessageBody  string
}

// LedgerEntry фиксирует уже уведомлённую пару получатель/встреча.
type LedgerEntry struct {
	RecipientID string `json:"recipientId"`
	MeetingID   string `json:"meetingId"`
}

// UnreachableEntry описывает номер без аккаунта в мессенджере.
type UnreachableEntry struct {
	PhoneNumber string `json:"phoneNumber"`
	Title       string `json:"title"`
}

// Reachability содержит ответ мессенджера на проверку номера.
type Reachability struct {
	Exists bool
	ID     string
}

// Summary содержит итоги одного прогона уведомлений.
type Summary struct {
	RunID           string
	MeetingsFound   int
	Sent            []string
	AlreadyNotified []string
	Failed          []string
	Unreachable     []UnreachableEntry
	Invalid         []string
	Errors          []string
}

// InboundMessage описывает входящее текстовое сообщение мессенджера.
type InboundMessage struct {
	From   string
	Text   string
	FromMe bool
}
