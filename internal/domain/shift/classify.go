package shift

const (
	OpenerStartHour = 6
	CloserEndHour   = 22
	// Shifts starting before this hour count as early starts.
	EarlyStartCutoff = 9
)

var midShiftStartHours = map[int]struct{}{7: {}, 8: {}, 9: {}}

func (s Shift) IsWorked() bool {
	return s.Kind == KindWorked
}

// IsAway reports an OFF or PTO day.
func (s Shift) IsAway() bool {
	return s.Kind == KindOff || s.Kind == KindPTO
}

func (s Shift) IsOpener() bool {
	return s.IsWorked() && s.StartHour == OpenerStartHour
}

func (s Shift) IsCloser() bool {
	return s.IsWorked() && s.EndHour == CloserEndHour
}

func (s Shift) IsMidShift() bool {
	if !s.IsWorked() {
		return false
	}
	_, ok := midShiftStartHours[s.StartHour]
	return ok
}

func (s Shift) IsEarlyStart() bool {
	return s.IsWorked() && s.StartHour < EarlyStartCutoff
}
