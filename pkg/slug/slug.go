package slug

import (
	"regexp"
	"strings"
)

// cyrillicToLatin maps Cyrillic characters to Latin transliteration
var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "c", 'ч': "ch", 'ш': "sh", 'щ': "sh", 'ъ': "",
	'ы': "y", 'ь': "", 'э': "e", 'ю': "iu", 'я': "ia",
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
	// "c++" and "c#" would otherwise both collapse to "c"
	symbolWords = strings.NewReplacer("+", " plus ", "#", " sharp ")
)

// Generate builds a URL-friendly slug from a free-form name.
// Example: "Machine Learning" -> "machine-learning", "Гитара" -> "gitara"
func Generate(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(symbolWords.Replace(name)) {
		if latin, ok := cyrillicToLatin[r]; ok {
			b.WriteString(latin)
			continue
		}
		b.WriteRune(r)
	}

	return strings.Trim(nonSlugChars.ReplaceAllString(b.String(), "-"), "-")
}
