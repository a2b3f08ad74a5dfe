package ctxlog

import (
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

var tookMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Second, Format: "%dms", DivBy: time.Millisecond},
	{D: 2 * time.Minute, Format: "%ds", DivBy: time.Second},
	{D: 2 * time.Hour, Format: "%dm", DivBy: time.Minute},
	{D: math.MaxInt64, Format: "%dh", DivBy: time.Hour},
}

// Took renders an elapsed duration as a "took" attribute in whole units,
// e.g. "450ms", "95s", "12m".
func Took(d time.Duration) slog.Attr {
	var start time.Time
	return slog.String("took", humanize.CustomRelTime(start, start.Add(d), "", "", tookMagnitudes))
}
