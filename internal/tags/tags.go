// Package tags holds the dietary and highlight tags a menu item can carry and
// their labels in every supported language.
package tags

import "slices"

// Tag identifies a menu item tag as stored in menu_items.tags.
type Tag string

const (
	Vegetarian   Tag = "vegetarian"
	Vegan        Tag = "vegan"
	GlutenFree   Tag = "gluten_free"
	Spicy        Tag = "spicy"
	Halal        Tag = "halal"
	ContainsNuts Tag = "contains_nuts"
	DairyFree    Tag = "dairy_free"
	ChefSpecial  Tag = "chef_special"
	New          Tag = "new"
	Popular      Tag = "popular"
)

// DefaultLocale is used when a label is missing in the requested locale.
const DefaultLocale = "en"

// All lists the catalog in display order.
var All = []Tag{Vegetarian, Vegan, GlutenFree, Spicy, Halal, ContainsNuts, DairyFree, ChefSpecial, New, Popular}

// Locales lists the supported label languages.
var Locales = []string{"en", "fr", "ar"}

var labels = map[string]map[Tag]string{
	"en": {
		Vegetarian:   "Vegetarian",
		Vegan:        "Vegan",
		GlutenFree:   "Gluten-free",
		Spicy:        "Spicy",
		Halal:        "Halal",
		ContainsNuts: "Contains nuts",
		DairyFree:    "Dairy-free",
		ChefSpecial:  "Chef's special",
		New:          "New",
		Popular:      "Popular",
	},
	"fr": {
		Vegetarian:   "Végétarien",
		Vegan:        "Végan",
		GlutenFree:   "Sans gluten",
		Spicy:        "Épicé",
		Halal:        "Halal",
		ContainsNuts: "Contient des fruits à coque",
		DairyFree:    "Sans lactose",
		ChefSpecial:  "Suggestion du chef",
		New:          "Nouveau",
		Popular:      "Populaire",
	},
	"ar": {
		Vegetarian:   "نباتي",
		Vegan:        "نباتي صرف",
		GlutenFree:   "خالٍ من الغلوتين",
		Spicy:        "حار",
		Halal:        "حلال",
		ContainsNuts: "يحتوي على مكسرات",
		DairyFree:    "خالٍ من الألبان",
		ChefSpecial:  "اختيار الشيف",
		New:          "جديد",
		Popular:      "الأكثر طلبًا",
	},
}

// Valid reports whether t is in the catalog.
func Valid(t string) bool {
	return slices.Contains(All, Tag(t))
}

// SupportedLocale returns locale when labels exist for it, else DefaultLocale.
func SupportedLocale(locale string) string {
	if _, ok := labels[locale]; ok {
		return locale
	}
	return DefaultLocale
}

// Label returns the label of tag in locale, falling back to English and then
// to the raw tag.
func Label(tag, locale string) string {
	if l, ok := labels[locale][Tag(tag)]; ok {
		return l
	}
	if l, ok := labels[DefaultLocale][Tag(tag)]; ok {
		return l
	}
	return tag
}

// Missing reports every locale/tag pair without a label, as "locale.tag".
func Missing() []string {
	var missing []string
	for _, locale := range Locales {
		for _, t := range All {
			if labels[locale][t] == "" {
				missing = append(missing, locale+"."+string(t))
			}
		}
	}
	return missing
}

// Labeled is a tag together with its label.
type Labeled struct {
	Tag   string `json:"tag"`
	Label string `json:"label"`
}

// LabelAll labels a list of tags in locale, preserving order.
func LabelAll(tags []string, locale string) []Labeled {
	out := make([]Labeled, 0, len(tags))
	for _, t := range tags {
		out = append(out, Labeled{Tag: t, Label: Label(t, locale)})
	}
	return out
}
