package shift

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		raw       string
		kind      Kind
		start     int
		end       int
		malformed bool
	}{
		{"", KindNotScheduled, 0, 0, false},
		{"   ", KindNotScheduled, 0, 0, false},
		{"OFF", KindOff, 0, 0, false},
		{" off ", KindOff, 0, 0, false},
		{"PTO", KindPTO, 0, 0, false},
		{"6a-3p", KindWorked, 6, 15, false},
		{"7a-6p", KindWorked, 7, 18, false},
		{"2p-10p", KindWorked, 14, 22, false},
		{"12p-8p", KindWorked, 12, 20, false},
		{"12a-8a", KindWorked, 0, 8, false},
		{"9A-5P", KindWorked, 9, 17, false},
		{"10a - 10p", KindWorked, 10, 22, false},
		{"7a", KindWorked, 7, 0, true},
		{"noon-10p", KindWorked, 0, 22, true},
		{"13p-10p", KindWorked, 0, 22, true},
		{"6a-late", KindWorked, 6, 0, true},
		{"sick", KindWorked, 0, 0, true},
		{"10am-6pm", KindWorked, 10, 18, false},
		{"123a-10p", KindWorked, 0, 22, true},
		{"16a-10p", KindWorked, 0, 22, true},
		{"6a-16a", KindWorked, 6, 0, true},
		{"0a-8a", KindWorked, 0, 8, true},
		{"x6a-3p", KindWorked, 0, 15, true},
		{"6ax-3p", KindWorked, 0, 15, true},
	}
	for _, c := range cases {
		got := Parse(c.raw)
		assert.Equal(t, c.kind, got.Kind, "kind for %q", c.raw)
		assert.Equal(t, c.raw, got.Raw)
		if c.kind == KindWorked {
			assert.Equal(t, c.start, got.StartHour, "start for %q", c.raw)
			assert.Equal(t, c.end, got.EndHour, "end for %q", c.raw)
		}
		assert.Equal(t, c.malformed, got.Malformed, "malformed for %q", c.raw)
	}
}

func TestParse_WorkedHoursInRange(t *testing.T) {
	for _, raw := range []string{"6a-3p", "12a-12p", "11p-7a", "99a-99p", "1p-11p"} {
		s := Parse(raw)
		assert.True(t, s.IsWorked())
		assert.GreaterOrEqual(t, s.StartHour, 0)
		assert.LessOrEqual(t, s.StartHour, 23)
		assert.GreaterOrEqual(t, s.EndHour, 0)
		assert.LessOrEqual(t, s.EndHour, 23)
	}
}

func TestShift_Err(t *testing.T) {
	assert.NoError(t, Parse("6a-3p").Err())
	assert.NoError(t, Parse("OFF").Err())

	err := Parse("sick").Err()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedShift))

	var malformed *MalformedError
	assert.True(t, errors.As(err, &malformed))
	assert.Equal(t, "sick", malformed.Raw)
}

func TestShift_StartLabel(t *testing.T) {
	assert.Equal(t, "7am", Parse("7a-6p").StartLabel())
	assert.Equal(t, "2pm", Parse("2p-10p").StartLabel())
	assert.Equal(t, "10am", Parse("10am-6pm").StartLabel())
	assert.Equal(t, "", Parse("OFF").StartLabel())
	assert.Equal(t, "", Parse("").StartLabel())
}

func TestClassifiers(t *testing.T) {
	opener := Parse("6a-3p")
	assert.True(t, opener.IsOpener())
	assert.True(t, opener.IsEarlyStart())
	assert.False(t, opener.IsMidShift())
	assert.False(t, opener.IsCloser())

	closer := Parse("2p-10p")
	assert.True(t, closer.IsCloser())
	assert.False(t, closer.IsOpener())
	assert.False(t, closer.IsEarlyStart())

	for _, raw := range []string{"7a-3p", "8a-4p", "9a-5p"} {
		assert.True(t, Parse(raw).IsMidShift(), raw)
	}
	for _, raw := range []string{"6a-3p", "10a-6p", "5a-1p"} {
		assert.False(t, Parse(raw).IsMidShift(), raw)
	}

	assert.True(t, Parse("8a-4p").IsEarlyStart())
	assert.False(t, Parse("9a-5p").IsEarlyStart())

	for _, raw := range []string{"", "OFF", "PTO"} {
		s := Parse(raw)
		assert.False(t, s.IsOpener(), raw)
		assert.False(t, s.IsCloser(), raw)
		assert.False(t, s.IsMidShift(), raw)
		assert.False(t, s.IsEarlyStart(), raw)
	}
	assert.True(t, Parse("OFF").IsAway())
	assert.True(t, Parse("PTO").IsAway())
	assert.False(t, Parse("").IsAway())
}
