package match

import "fmt"

// Mode selects which search phases run for a match.
type Mode int

const (
	// ModeGridOnly runs the exhaustive grid search without refinement.
	ModeGridOnly Mode = iota
	// ModeGridCoord runs coordinate ascent after the grid search. This is
	// the default and the safest choice.
	ModeGridCoord
	// ModeYGridCoord runs the grid search, then restricts refinement to
	// (y, theta). Used when x-translation search is undesirable, e.g.
	// height matching under platform roll/pitch compensation.
	ModeYGridCoord
	// ModeCoordOnly skips the grid search entirely; only valid when the
	// prior is already within a cell of the optimum.
	ModeCoordOnly
	// ModeYCoordOnly is ModeCoordOnly restricted to (y, theta).
	ModeYCoordOnly
)

var modeNames = map[Mode]string{
	ModeGridOnly:   "grid_only",
	ModeGridCoord:  "grid_coord",
	ModeYGridCoord: "y_grid_coord",
	ModeCoordOnly:  "coord_only",
	ModeYCoordOnly: "y_coord_only",
}

// String returns the configuration name of the mode.
func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// usesGrid reports whether the mode includes the grid search phase.
func (m Mode) usesGrid() bool {
	return m == ModeGridOnly || m == ModeGridCoord || m == ModeYGridCoord
}

// usesCoordAscent reports whether the mode includes local refinement.
func (m Mode) usesCoordAscent() bool {
	return m != ModeGridOnly
}

// yThetaOnly reports whether refinement is restricted to (y, theta).
func (m Mode) yThetaOnly() bool {
	return m == ModeYGridCoord || m == ModeYCoordOnly
}

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	for m, n := range modeNames {
		if n == s {
			return m, nil
		}
	}
	return ModeGridCoord, fmt.Errorf("match: unknown matching mode %q", s)
}
