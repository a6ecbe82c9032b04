package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/drawing"
)

// Rule maps entity metadata to a category. Empty fields match anything, but
// a rule with no criteria at all never matches.
type Rule struct {
	Name     string
	Layer    *regexp.Regexp
	Color    int
	Linetype string
	Category Category
}

// Matches reports whether e satisfies every criterion of the rule.
func (r Rule) Matches(e drawing.Entity) bool {
	if r.Layer == nil && r.Color == 0 && r.Linetype == "" {
		return false
	}
	if r.Layer != nil && !r.Layer.MatchString(e.Layer) {
		return false
	}
	if r.Color != 0 && r.Color != e.Color {
		return false
	}
	if r.Linetype != "" && !strings.EqualFold(r.Linetype, e.Linetype) {
		return false
	}
	return true
}

// restrictedWords matches labels and layer names of areas nobody may occupy.
const restrictedWords = `stair|escalier|elevator|ascenseur|lift|column|colonne|poteau|shaft|gaine|restricted|interdit`

var restrictedLabel = regexp.MustCompile(`(?i)` + restrictedWords)

// DefaultRules is the built-in table, evaluated after any configured rules.
// Layer rules come before colour rules so an explicit layer always wins.
var DefaultRules = []Rule{
	{Name: "annotation-layer", Layer: regexp.MustCompile(`(?i)anno|dim|hatch|grid|furn|mobilier`), Category: CategoryIgnore},
	{Name: "entrance-layer", Layer: regexp.MustCompile(`(?i)entrance|entree|entrée|exit|sortie`), Category: CategoryEntrance},
	{Name: "door-layer", Layer: regexp.MustCompile(`(?i)door|porte`), Category: CategoryDoor},
	{Name: "restricted-layer", Layer: regexp.MustCompile(`(?i)` + restrictedWords + `|cols?\b`), Category: CategoryRestricted},
	{Name: "window-layer", Layer: regexp.MustCompile(`(?i)window|fenetre|fenêtre|glaz`), Category: CategoryWall},
	{Name: "wall-layer", Layer: regexp.MustCompile(`(?i)wall|mur|cloison|partition`), Category: CategoryWall},
	{Name: "red-entrance", Color: 1, Category: CategoryEntrance},
	{Name: "blue-restricted", Color: 5, Category: CategoryRestricted},
}

// CompileRules converts configured rules and appends the defaults.
func CompileRules(defs []config.RuleDef) ([]Rule, error) {
	rules := make([]Rule, 0, len(defs)+len(DefaultRules))
	for i, d := range defs {
		cat, ok := ParseCategory(d.Category)
		if !ok {
			return nil, fmt.Errorf("rule %d (%s): unknown category %q", i, d.Name, d.Category)
		}
		r := Rule{Name: d.Name, Color: d.Color, Linetype: d.Linetype, Category: cat}
		if d.Layer != "" {
			re, err := regexp.Compile(d.Layer)
			if err != nil {
				return nil, fmt.Errorf("rule %d (%s): layer pattern: %w", i, d.Name, err)
			}
			r.Layer = re
		}
		rules = append(rules, r)
	}
	return append(rules, DefaultRules...), nil
}

// Match returns the category of the first matching rule.
func Match(rules []Rule, e drawing.Entity) (Category, bool) {
	for _, r := range rules {
		if r.Matches(e) {
			return r.Category, true
		}
	}
	return "", false
}
