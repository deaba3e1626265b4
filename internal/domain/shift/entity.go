package shift

import (
	"regexp"
	"strconv"
	"strings"
)

type Kind string

const (
	KindNotScheduled Kind = "not_scheduled"
	KindOff          Kind = "off"
	KindPTO          Kind = "pto"
	KindWorked       Kind = "worked"
)

const (
	KeywordOff = "OFF"
	KeywordPTO = "PTO"
)

// Shift is the parsed form of one schedule cell.
// StartHour and EndHour are only meaningful when Kind is KindWorked.
type Shift struct {
	Raw       string `json:"raw"`
	Kind      Kind   `json:"kind"`
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
	Malformed bool   `json:"malformed,omitempty"`

	startToken string
}

// hourPattern matches a whole 12-hour token: "7a", "10p", "10pm".
var hourPattern = regexp.MustCompile(`(?i)^(\d{1,2})([ap])m?$`)

// Parse never fails. Range text that does not match the <h><a|p>-<h><a|p>
// grammar, hours 1 to 12 with an optional trailing "m", still yields a worked
// shift, with the unreadable side at hour 0 and Malformed set.
func Parse(raw string) Shift {
	text := strings.TrimSpace(raw)
	s := Shift{Raw: raw}

	switch {
	case text == "":
		s.Kind = KindNotScheduled
		return s
	case strings.EqualFold(text, KeywordOff):
		s.Kind = KindOff
		return s
	case strings.EqualFold(text, KeywordPTO):
		s.Kind = KindPTO
		return s
	}

	s.Kind = KindWorked
	start, end, hasEnd := strings.Cut(text, "-")
	s.startToken = strings.TrimSpace(start)

	var ok bool
	if s.StartHour, ok = toHour(start); !ok {
		s.Malformed = true
	}
	if !hasEnd {
		s.Malformed = true
		return s
	}
	if s.EndHour, ok = toHour(end); !ok {
		s.Malformed = true
	}
	return s
}

// toHour converts "7a", "10p", "12a" to a 24-hour value.
func toHour(token string) (int, bool) {
	m := hourPattern.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return 0, false
	}
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 1 || hour > 12 {
		return 0, false
	}

	switch strings.ToLower(m[2]) {
	case "p":
		if hour != 12 {
			hour += 12
		}
	case "a":
		if hour == 12 {
			hour = 0
		}
	}
	return hour, true
}

// Err reports why a worked shift could not be read, or nil.
func (s Shift) Err() error {
	if !s.Malformed {
		return nil
	}
	return &MalformedError{Raw: s.Raw}
}

// StartLabel renders the start of the shift the way it is shown in
// messages: "7a" becomes "7am", "2p" becomes "2pm".
func (s Shift) StartLabel() string {
	if s.Kind != KindWorked {
		return ""
	}
	label := s.startToken
	i := strings.IndexAny(label, "aApP")
	if i < 0 {
		return label
	}
	if rest := label[i+1:]; rest == "" || (rest[0] != 'm' && rest[0] != 'M') {
		label = label[:i+1] + "m" + rest
	}
	return label
}
