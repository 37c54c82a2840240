// Package ingredient turns free-text recipe ingredient lines into catalog
// search terms ("2 cups chopped fresh tomatoes, seeded" -> "tomato").
package ingredient

import (
	"regexp"
	"strings"
)

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	// 1, 1.5, 1/2, 1-2, 1 to 2, ½, 1½
	quantity  = regexp.MustCompile(`^(?:\d+(?:[.,]\d+)?(?:\s*/\s*\d+)?[½⅓⅔¼¾⅕⅖⅗⅘⅙⅚⅛⅜⅝⅞]?|[½⅓⅔¼¾⅕⅖⅗⅘⅙⅚⅛⅜⅝⅞])(?:\s*(?:-|–)\s*|\s+to\s+)?`)
	nonAlpha  = regexp.MustCompile(`[^a-z\s-]+`)
	multSpace = regexp.MustCompile(`\s+`)
)

var units = toSet(
	"cup", "cups", "c",
	"tablespoon", "tablespoons", "tbsp", "tbs", "tbl",
	"teaspoon", "teaspoons", "tsp",
	"g", "gram", "grams", "kg", "kilogram", "kilograms", "mg",
	"ml", "milliliter", "milliliters", "l", "liter", "liters", "litre", "litres",
	"oz", "ounce", "ounces", "fl", "lb", "lbs", "pound", "pounds",
	"pint", "pints", "quart", "quarts", "gallon", "gallons",
	"can", "cans", "jar", "jars", "package", "packages", "pkg", "packet", "packets",
	"bag", "bags", "box", "boxes", "bottle", "bottles", "stick", "sticks",
	"clove", "cloves", "pinch", "pinches", "dash", "dashes", "handful", "handfuls",
	"slice", "slices", "piece", "pieces", "bunch", "bunches", "sprig", "sprigs",
	"head", "heads", "stalk", "stalks", "leaf", "leaves", "drop", "drops",
	"of", "a", "an", "x",
)

var descriptors = toSet(
	"chopped", "minced", "diced", "sliced", "grated", "shredded", "crushed",
	"ground", "peeled", "seeded", "cubed", "julienned", "halved", "quartered",
	"melted", "softened", "beaten", "sifted", "toasted", "roasted", "cooked",
	"uncooked", "drained", "rinsed", "trimmed", "zested", "juiced", "mashed",
	"fresh", "freshly", "frozen", "dried", "canned", "raw", "ripe",
	"large", "medium", "small", "extra", "big", "whole", "boneless", "skinless",
	"finely", "roughly", "coarsely", "thinly", "thickly", "lightly",
	"optional", "about", "approximately", "plus", "more", "to", "taste", "for",
	"garnish", "serving", "and", "or", "divided", "packed", "heaping", "level",
	"organic", "good", "quality", "room", "temperature", "cold", "hot", "warm",
)

// Words that end in "s" but are already singular.
var keepAsIs = toSet(
	"asparagus", "hummus", "couscous", "molasses", "swiss", "citrus",
	"lemongrass", "watercress", "grass", "bass", "octopus", "series",
	"gas", "brussels", "oats", "grits", "greens", "peas", "lentils",
	"chips", "noodles", "sprinkles", "hummous", "schnapps",
)

// Plurals in -ves whose singular keeps the v.
var vesPlurals = toSet("olives", "chives", "cloves", "endives")

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Normalize reduces an ingredient line to a searchable term. It returns ""
// when nothing searchable remains.
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = parenthetical.ReplaceAllString(s, " ")
	if i := strings.IndexAny(s, ",;"); i >= 0 {
		s = s[:i]
	}

	// Quantities can repeat: "1 1/2 cups", "2 (14 oz) cans".
	for {
		s = strings.TrimSpace(s)
		loc := quantity.FindStringIndex(s)
		if loc == nil || loc[1] == 0 {
			break
		}
		s = s[loc[1]:]
	}

	s = nonAlpha.ReplaceAllString(s, " ")

	words := make([]string, 0, 4)
	leading := true
	for _, w := range strings.Fields(s) {
		w = strings.Trim(w, "-")
		if w == "" {
			continue
		}
		if _, ok := descriptors[w]; ok {
			continue
		}
		if leading {
			if _, ok := units[w]; ok {
				continue
			}
		}
		leading = false
		words = append(words, w)
	}
	if len(words) == 0 {
		return ""
	}

	words[len(words)-1] = Singularize(words[len(words)-1])
	return multSpace.ReplaceAllString(strings.Join(words, " "), " ")
}

// Singularize handles the common English plural endings found in ingredient
// lists.
func Singularize(word string) string {
	if _, ok := keepAsIs[word]; ok {
		return word
	}
	n := len(word)
	switch {
	case n <= 3:
		return word
	case strings.HasSuffix(word, "ies"):
		return word[:n-3] + "y"
	case strings.HasSuffix(word, "oes"):
		return word[:n-2]
	case strings.HasSuffix(word, "ves"):
		if _, ok := vesPlurals[word]; ok {
			return word[:n-1]
		}
		return word[:n-3] + "f"
	case strings.HasSuffix(word, "ches"), strings.HasSuffix(word, "shes"),
		strings.HasSuffix(word, "xes"), strings.HasSuffix(word, "sses"):
		return word[:n-2]
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "us"):
		return word
	case strings.HasSuffix(word, "s"):
		return word[:n-1]
	}
	return word
}

// Dedupe normalises each line and drops empty and repeated terms, keeping the
// first original line for every term.
func Dedupe(lines []string) (terms []string, source map[string]string, unmatched []string) {
	source = make(map[string]string, len(lines))
	for _, line := range lines {
		term := Normalize(line)
		if term == "" {
			if strings.TrimSpace(line) != "" {
				unmatched = append(unmatched, line)
			}
			continue
		}
		if _, seen := source[term]; seen {
			continue
		}
		source[term] = line
		terms = append(terms, term)
	}
	return terms, source, unmatched
}
