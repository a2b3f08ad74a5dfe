// Package naming owns the file naming convention shared by the patcher,
// builder, runner and every downstream consumer.
//
// Each per-configuration artifact name encodes {dataset}_{activation}_{init}
// (activation and init strategy lower-cased). Sweep validation rejects axes
// whose stems collide, so a configuration can be recovered from a file name
// alone.
package naming

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/specialistvlad/sweepgrid/internal/sweep"
)

const (
	sourcePrefix = "main_"
	sourceExt    = ".c"
	exeExt       = ".exe"
	logInfix     = "_results_"
	logExt       = ".csv"
)

// Stem returns the experiment name of a configuration.
func Stem(cfg sweep.RunConfiguration) string {
	return fmt.Sprintf("%s_%s_%s", cfg.Dataset, strings.ToLower(cfg.Activation), strings.ToLower(cfg.InitStrategy))
}

// Layout places sweep artifacts on disk. GeneratedDir, ResultsDir and
// StorePath are relative to Root.
type Layout struct {
	Root         string
	GeneratedDir string
	ResultsDir   string
	StorePath    string
}

// SourcePath is the absolute path of the generated variant source.
func (l Layout) SourcePath(cfg sweep.RunConfiguration) string {
	return filepath.Join(l.Root, l.GeneratedDir, sourcePrefix+Stem(cfg)+sourceExt)
}

// ExecutablePath is the absolute path of the compiled variant.
func (l Layout) ExecutablePath(cfg sweep.RunConfiguration) string {
	return filepath.Join(l.Root, l.GeneratedDir, Stem(cfg)+exeExt)
}

// LogPath is the per-run metrics log path relative to Root, in slash form.
// It is what gets injected into the variant, so it stays free of platform
// separators.
func (l Layout) LogPath(cfg sweep.RunConfiguration) string {
	name := fmt.Sprintf("%s%s%d%s", Stem(cfg), logInfix, cfg.Seed, logExt)
	return path.Join(filepath.ToSlash(l.ResultsDir), name)
}

// Abs resolves a Root-relative path.
func (l Layout) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(l.Root, filepath.FromSlash(rel))
}

// Vocabulary is the set of axis tokens a stem may be decoded against.
type Vocabulary struct {
	Datasets       []string
	Activations    []string
	InitStrategies []string
}

// VocabularyOf returns the vocabulary of a configuration space.
func VocabularyOf(space *sweep.Space) Vocabulary {
	axes := space.Axes()
	return Vocabulary{Datasets: axes[0].Values, Activations: axes[1].Values, InitStrategies: axes[2].Values}
}

// Decode recovers the axis tokens from a stem. Tokens may themselves contain
// underscores, so decoding needs the vocabulary the stem was built from.
func Decode(stem string, v Vocabulary) (dataset, activation, strategy string, ok bool) {
	for _, ds := range v.Datasets {
		rest, found := strings.CutPrefix(stem, ds+"_")
		if !found {
			continue
		}
		for _, act := range v.Activations {
			tail, found := strings.CutPrefix(rest, strings.ToLower(act)+"_")
			if !found {
				continue
			}
			for _, strat := range v.InitStrategies {
				if tail == strings.ToLower(strat) {
					return ds, act, strat, true
				}
			}
		}
	}
	return "", "", "", false
}

// Kind of a convention-named artifact.
type Kind int

const (
	KindUnknown Kind = iota
	KindSource
	KindExecutable
	KindLog
)

// DecodeFile recovers the configuration and artifact kind from a file name.
// Seed is only known for logs; other kinds report seed 0.
func DecodeFile(name string, v Vocabulary) (sweep.RunConfiguration, Kind, bool) {
	base := filepath.Base(name)

	var stem string
	var kind Kind
	var seed int64
	switch {
	case strings.HasPrefix(base, sourcePrefix) && strings.HasSuffix(base, sourceExt):
		stem, kind = strings.TrimSuffix(strings.TrimPrefix(base, sourcePrefix), sourceExt), KindSource
	case strings.HasSuffix(base, exeExt):
		stem, kind = strings.TrimSuffix(base, exeExt), KindExecutable
	case strings.HasSuffix(base, logExt):
		i := strings.LastIndex(base, logInfix)
		if i < 0 {
			return sweep.RunConfiguration{}, KindUnknown, false
		}
		n, err := strconv.ParseInt(strings.TrimSuffix(base[i+len(logInfix):], logExt), 10, 64)
		if err != nil {
			return sweep.RunConfiguration{}, KindUnknown, false
		}
		stem, kind, seed = base[:i], KindLog, n
	default:
		return sweep.RunConfiguration{}, KindUnknown, false
	}

	ds, act, strat, ok := Decode(stem, v)
	if !ok {
		return sweep.RunConfiguration{}, KindUnknown, false
	}
	return sweep.RunConfiguration{Dataset: ds, Activation: act, InitStrategy: strat, Seed: seed}, kind, true
}
