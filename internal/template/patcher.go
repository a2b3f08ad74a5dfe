// Package template turns a dataset's base program source into a concrete
// variant for one run configuration.
//
// The base program exposes named slots (see Slots). The patcher performs
// whole-slot replacement: every slot it touches is rewritten from the
// configuration alone, so patching is idempotent and never depends on what a
// previous patch left behind.
package template

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/specialistvlad/sweepgrid/internal/outcome"
	"github.com/specialistvlad/sweepgrid/internal/sweep"
)

const (
	// TerminalActivation is the output-layer activation. The sweep's tasks use
	// a sigmoid-like output, so it is not part of the configuration space.
	TerminalActivation = "FIXED_SIG"
	// OutputInitStrategy is the activation-parameter init strategy of the output layer.
	OutputInitStrategy = "ACT_INIT_IDENTITY"
)

// Variant is the concrete source produced for one configuration.
type Variant struct {
	Source         string
	Arch           []int
	Activations    []string
	InitStrategies []string
}

// HiddenLayers returns the number of hidden weight-bearing layers.
func (v *Variant) HiddenLayers() int { return len(v.Activations) - 1 }

// PatchFile reads the template at path and patches it.
func PatchFile(path string, cfg sweep.RunConfiguration, logPath string) (*Variant, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", path, err)
	}
	v, err := Patch(string(raw), cfg, logPath)
	if err != nil {
		var perr *outcome.StructuralParseError
		if errors.As(err, &perr) {
			perr.Template = path
		}
		return nil, err
	}
	return v, nil
}

// Patch produces the variant source for cfg, writing its metrics log to
// logPath. It fails with *outcome.StructuralParseError when a required slot
// cannot be located unambiguously.
func Patch(src string, cfg sweep.RunConfiguration, logPath string) (*Variant, error) {
	arch, err := ParseArch(src)
	if err != nil {
		return nil, err
	}
	hidden := len(arch) - 2

	acts := repeatWithTail(cfg.Activation, hidden, TerminalActivation)
	strats := repeatWithTail(cfg.InitStrategy, hidden, OutputInitStrategy)
	actsDecl := fmt.Sprintf("ActType acts[] = {%s};", strings.Join(acts, ", "))
	stratsDecl := fmt.Sprintf("ActInitStrategy act_strats[] = {%s};", strings.Join(strats, ", "))

	actsLoc, err := actsSlot.locate(src)
	if err != nil {
		return nil, err
	}
	stratsLoc, err := stratsSlot.locate(src)
	if err != nil {
		return nil, err
	}
	logLoc, err := logPathSlot.locate(src)
	if err != nil {
		return nil, err
	}

	edits := []edit{
		{start: actsLoc[0], end: actsLoc[1], text: actsDecl},
		{start: logLoc[0], end: logLoc[1], text: fmt.Sprintf("sprintf(logf, \"%s\", %d);", cString(logPath), cfg.Seed)},
	}
	if stratsLoc != nil {
		edits = append(edits, edit{start: stratsLoc[0], end: stratsLoc[1], text: stratsDecl})
	} else {
		indent := lineIndent(src, actsLoc[0])
		edits = append(edits, edit{start: actsLoc[1], end: actsLoc[1], text: "\n" + indent + stratsDecl})
	}

	out, err := apply(src, edits)
	if err != nil {
		return nil, err
	}
	// The seed slot is optional and may legitimately appear more than once.
	out = seedSlot.Decl.ReplaceAllLiteralString(out, fmt.Sprintf("srand_seed(%d)", cfg.Seed))

	return &Variant{Source: out, Arch: arch, Activations: acts, InitStrategies: strats}, nil
}

// ParseArch reads the architecture declaration, a list of layer widths
// starting with the input width.
func ParseArch(src string) ([]int, error) {
	loc, err := archSlot.locate(src)
	if err != nil {
		return nil, err
	}
	body := src[loc[2]:loc[3]]

	var arch []int
	for _, field := range strings.Split(body, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n <= 0 {
			return nil, archSlot.fail("width %q is not a positive integer", field)
		}
		arch = append(arch, n)
	}
	if len(arch) < 2 {
		return nil, archSlot.fail("needs at least an input and an output width, got %d entries", len(arch))
	}
	return arch, nil
}

func repeatWithTail(token string, n int, tail string) []string {
	out := make([]string, 0, n+1)
	for range n {
		out = append(out, token)
	}
	return append(out, tail)
}

type edit struct {
	start, end int
	text       string
}

// apply performs non-overlapping edits against the original source.
func apply(src string, edits []edit) (string, error) {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b edit) int { return a.start - b.start })

	var b strings.Builder
	prev := 0
	for _, e := range sorted {
		if e.start < prev {
			return "", &outcome.StructuralParseError{Slot: "template", Reason: "slots overlap"}
		}
		b.WriteString(src[prev:e.start])
		b.WriteString(e.text)
		prev = e.end
	}
	b.WriteString(src[prev:])
	return b.String(), nil
}

var cStringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "%", "%%")

// cString escapes a path for use inside a C printf-style format literal.
func cString(s string) string {
	return cStringEscaper.Replace(s)
}

func (s Slot) fail(format string, args ...any) *outcome.StructuralParseError {
	return &outcome.StructuralParseError{Slot: s.Name, Reason: fmt.Sprintf(format, args...)}
}
