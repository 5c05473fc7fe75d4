package timefmt

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

type calendarNames struct {
	weekdays [7]string
	months   [12]string
}

var indonesianNames = calendarNames{
	weekdays: [7]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"},
	months: [12]string{
		"Januari", "Februari", "Maret", "April", "Mei", "Juni",
		"Juli", "Agustus", "September", "Oktober", "November", "Desember",
	},
}

var englishNames = calendarNames{
	weekdays: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	months: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
}

var supported = language.NewMatcher([]language.Tag{language.Indonesian, language.English})

func matchTag(tag language.Tag) language.Tag {
	if tag == language.Und {
		return language.Indonesian
	}
	_, idx, conf := supported.Match(tag)
	if conf == language.No {
		return language.Indonesian
	}
	if idx == 1 {
		return language.English
	}
	return language.Indonesian
}

func namesFor(tag language.Tag) calendarNames {
	if tag == language.English {
		return englishNames
	}
	return indonesianNames
}

// Message keys for relative times.
const (
	keyJustNow = "just now"
	keySeconds = "%d seconds ago"
	keyMinutes = "%d minutes ago"
	keyHours   = "%d hours ago"
	keyDays    = "%d days ago"
	keyMonths  = "%d months ago"
	keyYears   = "%d years ago"
)

var relativeCatalog = buildRelativeCatalog()

func buildRelativeCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.Indonesian))

	id := language.Indonesian
	b.SetString(id, keyJustNow, "baru saja")
	b.SetString(id, keySeconds, "%d detik yang lalu")
	b.SetString(id, keyMinutes, "%d menit yang lalu")
	b.SetString(id, keyHours, "%d jam yang lalu")
	b.SetString(id, keyDays, "%d hari yang lalu")
	b.SetString(id, keyMonths, "%d bulan yang lalu")
	b.SetString(id, keyYears, "%d tahun yang lalu")

	en := language.English
	b.SetString(en, keyJustNow, "just now")
	b.Set(en, keySeconds, plural.Selectf(1, "%d", "=1", "1 second ago", "other", "%d seconds ago"))
	b.Set(en, keyMinutes, plural.Selectf(1, "%d", "=1", "1 minute ago", "other", "%d minutes ago"))
	b.Set(en, keyHours, plural.Selectf(1, "%d", "=1", "1 hour ago", "other", "%d hours ago"))
	b.Set(en, keyDays, plural.Selectf(1, "%d", "=1", "1 day ago", "other", "%d days ago"))
	b.Set(en, keyMonths, plural.Selectf(1, "%d", "=1", "1 month ago", "other", "%d months ago"))
	b.Set(en, keyYears, plural.Selectf(1, "%d", "=1", "1 year ago", "other", "%d years ago"))

	return b
}
