package prompt

import "strings"

// themeElements - набор сцен и предметов для известных тем.
type themeElements struct {
	Elements    []string
	Activities  []string
	SafeObjects []string
}

const defaultTheme = "adventure"

var themes = map[string]themeElements{
	"space": {
		Elements:    []string{"rocket", "stars", "planets", "moon", "astronaut", "space station"},
		Activities:  []string{"flying", "exploring", "discovering", "floating", "observing"},
		SafeObjects: []string{"space helmet", "space suit", "spacecraft", "control panel"},
	},
	"animals": {
		Elements:    []string{"forest", "meadow", "pond", "nest", "burrow", "tree"},
		Activities:  []string{"playing", "exploring", "resting", "eating", "watching"},
		SafeObjects: []string{"soft grass", "cozy nest", "warm den", "gentle stream"},
	},
	"adventure": {
		Elements:    []string{"path", "bridge", "garden", "treehouse", "meadow", "hill"},
		Activities:  []string{"walking", "discovering", "building", "creating", "climbing"},
		SafeObjects: []string{"compass", "map", "backpack", "blanket", "lantern"},
	},
}

// lookupTheme возвращает элементы темы, для неизвестных тем - набор "adventure".
func lookupTheme(theme string) themeElements {
	if t, ok := themes[strings.ToLower(strings.TrimSpace(theme))]; ok {
		return t
	}
	return themes[defaultTheme]
}

// fairyTales - сказки общественного достояния для смешанного шаблона.
var fairyTales = []string{
	"Cinderella",
	"Jack and the Beanstalk",
	"Goldilocks and the Three Bears",
	"The Three Little Pigs",
	"Sleeping Beauty",
	"The Frog Prince",
	"Thumbelina",
	"The Ugly Duckling",
	"Hansel and Gretel",
	"The Elves and the Shoemaker",
}
