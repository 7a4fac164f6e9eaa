package category

import "strings"

// Icon identifies the glyph a category is drawn with. The presentation
// layer decides how each icon is rendered.
type Icon int

const (
	IconFolkTales Icon = iota + 1
	IconHistory
	IconTraditions
	IconMythology
	IconHeroes
	IconFestivals
)

func (i Icon) String() string {
	switch i {
	case IconFolkTales:
		return "folk-tales"
	case IconHistory:
		return "history"
	case IconTraditions:
		return "traditions"
	case IconMythology:
		return "mythology"
	case IconHeroes:
		return "heroes"
	case IconFestivals:
		return "festivals"
	}
	return "unknown"
}

// Category is a kind of cultural story the user can ask for.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        Icon   `json:"icon"`
}

var catalog = []Category{
	{
		ID:          "folk-tales",
		Name:        "Folk Tales",
		Description: "Traditional stories passed down through generations",
		Icon:        IconFolkTales,
	},
	{
		ID:          "history",
		Name:        "History",
		Description: "Historical events and figures brought to life",
		Icon:        IconHistory,
	},
	{
		ID:          "traditions",
		Name:        "Traditions",
		Description: "Cultural practices and ceremonies",
		Icon:        IconTraditions,
	},
	{
		ID:          "mythology",
		Name:        "Mythology",
		Description: "Ancient myths and legends",
		Icon:        IconMythology,
	},
	{
		ID:          "heroes",
		Name:        "Heroes",
		Description: "Legendary figures and their adventures",
		Icon:        IconHeroes,
	},
	{
		ID:          "festivals",
		Name:        "Festivals",
		Description: "Cultural celebrations and their origins",
		Icon:        IconFestivals,
	},
}

// All returns the catalog in display order. The slice is a copy.
func All() []Category {
	out := make([]Category, len(catalog))
	copy(out, catalog)
	return out
}

// Default is the category selected before the user picks one.
func Default() Category {
	return catalog[0]
}

// Lookup finds a category by id or display name, ignoring case.
func Lookup(key string) (Category, bool) {
	key = strings.TrimSpace(key)
	for _, c := range catalog {
		if strings.EqualFold(c.ID, key) || strings.EqualFold(c.Name, key) {
			return c, true
		}
	}
	return Category{}, false
}
