package bondyield

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-value/internal/contracts"
)

func date(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestRateAt_StepFunction(t *testing.T) {
	s, err := New([]Point{
		{Date: date("2014-11-22"), Rate: 4.00},
		{Date: date("2015-03-01"), Rate: 3.75},
	})
	require.NoError(t, err)

	tests := []struct {
		asOf string
		want float64
	}{
		{"2015-02-28", 4.00},
		{"2015-03-01", 3.75},
		{"2015-03-02", 3.75},
		{"2014-11-22", 4.00},
		{"2030-01-01", 3.75},
	}

	for _, tt := range tests {
		t.Run(tt.asOf, func(t *testing.T) {
			got, err := s.RateAt(date(tt.asOf))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateAt_BeforeFirstDate(t *testing.T) {
	s, err := New([]Point{{Date: date("2014-11-22"), Rate: 4.00}})
	require.NoError(t, err)

	_, err = s.RateAt(date("2014-11-21"))
	assert.ErrorIs(t, err, contracts.ErrBondYieldUndefined)
}

func TestRateAt_IgnoresTimeOfDay(t *testing.T) {
	s, err := New([]Point{{Date: date("2015-03-01"), Rate: 3.75}})
	require.NoError(t, err)

	got, err := s.RateAt(time.Date(2015, 3, 1, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 3.75, got)
}

func TestNew_UnsortedAndDuplicates(t *testing.T) {
	s, err := New([]Point{
		{Date: date("2015-03-01"), Rate: 3.75},
		{Date: date("2014-11-22"), Rate: 4.00},
		{Date: date("2015-03-01"), Rate: 3.70},
	})
	require.NoError(t, err)

	assert.Equal(t, date("2014-11-22"), s.First())
	rate, err := s.RateAt(date("2015-03-01"))
	require.NoError(t, err)
	assert.Equal(t, 3.70, rate, "같은 날짜는 마지막 값")
	rate, err = s.RateAt(date("2015-02-28"))
	require.NoError(t, err)
	assert.Equal(t, 4.00, rate)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New([]Point{{Date: date("2015-03-01"), Rate: -1}})
	assert.Error(t, err)

	_, err = ParsePoints(map[string]float64{"2015/03/01": 1})
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	s := Default()

	assert.Equal(t, date("2002-02-21"), s.First())

	rate, err := s.RateAt(date("2015-06-30"))
	require.NoError(t, err)
	assert.Equal(t, 3.25, rate)

	_, err = s.RateAt(date("2001-12-31"))
	assert.ErrorIs(t, err, contracts.ErrBondYieldUndefined)
}
