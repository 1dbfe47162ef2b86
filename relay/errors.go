package relay

import (
	"fmt"

	"github.com/yllada/mullvad-rotate/common"
)

// Axis names a dimension a constraint narrows.
type Axis string

const (
	AxisCountry   Axis = "country"
	AxisCity      Axis = "city"
	AxisServer    Axis = "server"
	AxisProvider  Axis = "provider"
	AxisProtocol  Axis = "tunnel protocol"
	AxisOwnership Axis = "ownership"
	AxisStboot    Axis = "stboot"
	AxisBandwidth Axis = "minimum bandwidth"
)

// EmptyCandidateSetError reports the stage or attribute that left no
// candidates. It matches common.ErrEmptyCandidateSet with errors.Is.
type EmptyCandidateSetError struct {
	Axis Axis
}

func (e *EmptyCandidateSetError) Error() string {
	switch e.Axis {
	case AxisCountry:
		return "no available countries amongst the ones specified"
	case AxisCity:
		return "no available cities amongst the ones specified"
	case AxisServer:
		return "no compatible and available servers amongst the ones specified"
	default:
		return fmt.Sprintf("no available relays match the %s constraint", e.Axis)
	}
}

// Is matches common.ErrEmptyCandidateSet.
func (e *EmptyCandidateSetError) Is(target error) bool {
	return target == common.ErrEmptyCandidateSet
}

func emptyCandidates(axis Axis) error {
	return &EmptyCandidateSetError{Axis: axis}
}
