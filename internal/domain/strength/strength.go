// Package strength classifies the skater situation on the ice.
//
// A label is always expressed from one team's perspective as
// "{skaters_for}x{skaters_against}", goalies excluded.
package strength

import (
	"strconv"
)

// Label is one of the known strength situations. The zero value is 5x5.
type Label uint8

// Known labels. Anomaly collects every skater combination that is neither
// legitimate nor a shootout; shift-chart errors end up there.
const (
	Even5v5 Label = iota
	PP6v5
	SH5v6
	PP5v4
	SH4v5
	PP5v3
	SH3v5
	Even4v4
	PP4v3
	SH3v4
	Even3v3
	PP6v4
	SH4v6
	PP6v3
	SH3v6
	Anomaly

	// Count is the number of labels, Anomaly included.
	Count = int(Anomaly) + 1
)

// AnomalyName is how Anomaly is rendered in output tables.
const AnomalyName = "2x2"

type counts struct{ us, them int }

var labelCounts = [Count]counts{
	Even5v5: {5, 5},
	PP6v5:   {6, 5},
	SH5v6:   {5, 6},
	PP5v4:   {5, 4},
	SH4v5:   {4, 5},
	PP5v3:   {5, 3},
	SH3v5:   {3, 5},
	Even4v4: {4, 4},
	PP4v3:   {4, 3},
	SH3v4:   {3, 4},
	Even3v3: {3, 3},
	PP6v4:   {6, 4},
	SH4v6:   {4, 6},
	PP6v3:   {6, 3},
	SH3v6:   {3, 6},
}

var (
	byName   = make(map[string]Label, Count)
	byCounts = make(map[counts]Label, Count-1)
	names    [Count]string
)

func init() { //nolint:gochecknoinits // static lookup tables
	for l := Even5v5; l < Anomaly; l++ {
		c := labelCounts[l]
		names[l] = compose(c.us, c.them)
		byName[names[l]] = l
		byCounts[c] = l
	}
	names[Anomaly] = AnomalyName
	byName[AnomalyName] = Anomaly
}

func compose(a, b int) string {
	return strconv.Itoa(a) + "x" + strconv.Itoa(b)
}

// String renders the label, e.g. "5x4".
func (l Label) String() string {
	if int(l) >= Count {
		return "invalid"
	}
	return names[l]
}

// Mirror returns the label as seen by the opposing team.
func (l Label) Mirror() Label {
	if l == Anomaly || int(l) >= Count {
		return l
	}
	c := labelCounts[l]
	return byCounts[counts{c.them, c.us}]
}

// All returns every label in table order.
func All() []Label {
	out := make([]Label, Count)
	for i := range out {
		out[i] = Label(i)
	}
	return out
}

// IsShootout reports whether the skater counts match a shootout attempt.
func IsShootout(skatersFor, skatersAgainst int) bool {
	return skatersFor <= 1 && skatersAgainst <= 1 && skatersFor >= 0 && skatersAgainst >= 0
}

// Classify derives the label for skatersFor against skatersAgainst.
// The boolean is true for shootout combinations (1x1, 0x0, 1x0, 0x1), in which
// case the label is meaningless and the tick must not be attributed.
func Classify(skatersFor, skatersAgainst int) (Label, bool) {
	if IsShootout(skatersFor, skatersAgainst) {
		return Anomaly, true
	}
	if l, ok := byCounts[counts{skatersFor, skatersAgainst}]; ok {
		return l, false
	}
	return Anomaly, false
}

// Parse converts a rendered label back. Unknown strings return false.
func Parse(s string) (Label, bool) {
	l, ok := byName[s]
	return l, ok
}
