package domain

// Program связывает подстроку заголовка встречи с категорией и приветствием.
type Program struct {
	Match    string `yaml:"match"`
	Category string `yaml:"category"`
	// Greeting поддерживает плейсхолдеры {name} и {sender}.
	Greeting string `yaml:"greeting"`
}

// Messages содержит тексты второй и третьей реплики рассылки.
type Messages struct {
	// Confirmation поддерживает {day}, {weekday}, {time} и {country}.
	Confirmation         string `yaml:"confirmation"`
	ConfirmationAgnostic string `yaml:"confirmation_agnostic"`
	Closing              string `yaml:"closing"`
}

// Catalog описывает правила распознавания встреч и тексты сообщений.
type Catalog struct {
	LeadIns           []string  `yaml:"lead_ins"`
	CancelledPrefix   string    `yaml:"cancelled_prefix"`
	Programs          []Program `yaml:"programs"`
	FallbackCategory  string    `yaml:"fallback_category"`
	AgnosticCountries []string  `yaml:"agnostic_countries"`
	Messages          Messages  `yaml:"messages"`
}
