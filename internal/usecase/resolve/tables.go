package resolve

// callingCodes сопоставляет международный код страны с её названием.
var callingCodes = map[string]string{
	"1":   "Canada/EEUU",
	"51":  "Peru",
	"52":  "México",
	"54":  "Argentina",
	"55":  "Brasil",
	"56":  "Chile",
	"57":  "Colombia",
	"58":  "Venezuela",
	"503": "El Salvador",
	"506": "Costa Rica",
	"507": "Panamá",
	"591": "Bolivia",
	"593": "Ecuador",
	"595": "Paraguay",
	"598": "Uruguay",
}

// countryZones задаёт часовой пояс страны по умолчанию.
var countryZones = map[string]string{
	"Canada/EEUU": "America/New_York",
	"Peru":        "America/Lima",
	"México":      "America/Mexico_City",
	"Argentina":   "America/Argentina/Buenos_Aires",
	"Brasil":      "America/Sao_Paulo",
	"Chile":       "America/Santiago",
	"Colombia":    "America/Bogota",
	"Venezuela":   "America/Caracas",
	"El Salvador": "America/El_Salvador",
	"Costa Rica":  "America/Costa_Rica",
	"Panamá":      "America/Panama",
	"Bolivia":     "America/La_Paz",
	"Ecuador":     "America/Guayaquil",
	"Paraguay":    "America/Asuncion",
	"Uruguay":     "America/Montevideo",
}

// areaZones уточняет пояс по коду региона для стран с несколькими поясами.
// Таблицы неполные: неизвестный код региона даёт пояс страны по умолчанию.
var areaZones = map[string]map[string]string{
	"Canada/EEUU": {
		"212": "America/New_York",
		"305": "America/New_York",
		"786": "America/New_York",
		"404": "America/New_York",
		"416": "America/Toronto",
		"514": "America/Toronto",
		"312": "America/Chicago",
		"713": "America/Chicago",
		"214": "America/Chicago",
		"303": "America/Denver",
		"403": "America/Edmonton",
		"602": "America/Phoenix",
		"213": "America/Los_Angeles",
		"310": "America/Los_Angeles",
		"415": "America/Los_Angeles",
		"206": "America/Los_Angeles",
		"604": "America/Vancouver",
		"808": "Pacific/Honolulu",
		"907": "America/Anchorage",
	},
	"México": {
		"664": "America/Tijuana",
		"686": "America/Tijuana",
		"662": "America/Hermosillo",
		"998": "America/Cancun",
		"614": "America/Chihuahua",
		"81":  "America/Monterrey",
		"33":  "America/Mexico_City",
		"55":  "America/Mexico_City",
	},
	"Brasil": {
		"92": "America/Manaus",
		"65": "America/Cuiaba",
		"66": "America/Cuiaba",
		"67": "America/Campo_Grande",
		"68": "America/Rio_Branco",
		"69": "America/Porto_Velho",
		"95": "America/Boa_Vista",
	},
}
