package llmjson

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Bilingual is an answer given in English and Thai, with the optional label
// date the model may report alongside it.
type Bilingual struct {
	English string
	Thai    string
	Date    string
}

// ParseBilingual reads an {"english", "thai"} payload out of text. When no
// such payload is found the trimmed text is used for both languages and ok
// is false. Output is NFC normalized so Thai combining marks compare equal
// however the model composed them.
func ParseBilingual(text string) (b Bilingual, ok bool) {
	obj, found := FindObject(text, "english", "thai")
	if !found {
		raw := norm.NFC.String(strings.TrimSpace(text))
		return Bilingual{English: raw, Thai: raw}, false
	}

	b.English, _ = obj.String("english")
	b.Thai, _ = obj.String("thai")
	b.Date, _ = obj.String("date")

	b.English = norm.NFC.String(strings.TrimSpace(b.English))
	b.Thai = norm.NFC.String(strings.TrimSpace(b.Thai))
	b.Date = strings.TrimSpace(b.Date)
	return b, true
}
