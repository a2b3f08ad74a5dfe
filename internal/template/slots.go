package template

import (
	"regexp"
	"strings"
)

// Slot names.
const (
	SlotArch    = "arch"
	SlotActs    = "acts"
	SlotStrats  = "act_strats"
	SlotLogPath = "log_path"
	SlotSeed    = "seed"
)

// Slot is a structurally locatable, patchable region of a program template.
//
// Decl matches the whole slot. Marker matches the start of the slot; a
// template where Marker matches but Decl does not declares the slot in a form
// the patcher cannot rewrite, which is a structural error.
type Slot struct {
	Name     string
	Required bool
	Decl     *regexp.Regexp
	Marker   *regexp.Regexp
}

var (
	archSlot = Slot{
		Name:     SlotArch,
		Required: true,
		Decl:     regexp.MustCompile(`int\s+arch\s*\[\s*\d*\s*\]\s*=\s*\{([^}]*)\}\s*;`),
		Marker:   regexp.MustCompile(`int\s+arch\s*\[`),
	}
	actsSlot = Slot{
		Name:     SlotActs,
		Required: true,
		Decl:     regexp.MustCompile(`ActType\s+acts\s*\[\s*\d*\s*\]\s*=\s*\{[^}]*\}\s*;`),
		Marker:   regexp.MustCompile(`ActType\s+acts\s*\[`),
	}
	stratsSlot = Slot{
		Name:   SlotStrats,
		Decl:   regexp.MustCompile(`ActInitStrategy\s+act_strats\s*\[\s*\d*\s*\]\s*=\s*\{[^}]*\}\s*;`),
		Marker: regexp.MustCompile(`ActInitStrategy\s+act_strats\s*\[`),
	}
	logPathSlot = Slot{
		Name:     SlotLogPath,
		Required: true,
		Decl:     regexp.MustCompile(`sprintf\(\s*logf\s*,\s*"(?:[^"\\]|\\.)*"\s*,\s*-?\d+\s*\)\s*;`),
		Marker:   regexp.MustCompile(`sprintf\(\s*logf\s*,`),
	}
	seedSlot = Slot{
		Name:   SlotSeed,
		Decl:   regexp.MustCompile(`srand_seed\(\s*-?\d+\s*\)`),
		Marker: regexp.MustCompile(`srand_seed\(`),
	}
)

// Slots lists every slot the patcher knows about, in patch order.
func Slots() []Slot {
	return []Slot{archSlot, actsSlot, stratsSlot, logPathSlot, seedSlot}
}

// locate finds the single declaration of a slot. It returns nil when the slot
// is absent and optional.
func (s Slot) locate(src string) ([]int, error) {
	matches := s.Decl.FindAllStringSubmatchIndex(src, -1)
	switch {
	case len(matches) == 1:
		return matches[0], nil
	case len(matches) > 1:
		return nil, s.fail("declared %d times", len(matches))
	case s.Marker.MatchString(src):
		return nil, s.fail("declaration is malformed")
	case s.Required:
		return nil, s.fail("declaration not found")
	}
	return nil, nil
}

// lineIndent returns the leading whitespace of the line containing offset.
func lineIndent(src string, offset int) string {
	start := strings.LastIndexByte(src[:offset], '\n') + 1
	line := src[start:offset]
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
