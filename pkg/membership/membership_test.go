package membership

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestComputeEndDate(t *testing.T) {
	tests := []struct {
		start string
		plan  PlanType
		want  string
	}{
		{"2024-01-01", PlanOneMonth, "2024-01-31"},
		{"2025-01-01", PlanOneMonth, "2025-01-31"},
		{"2025-03-01", PlanThreeMonths, "2025-05-31"},
		{"2025-01-15", PlanSixMonths, "2025-07-14"},
		{"2025-06-10", PlanOneYear, "2026-06-09"},
		{"2024-02-29", PlanOneYear, "2025-02-28"},
		{"2024-12-15", PlanOneMonth, "2025-01-14"},
		// overflow rolls into the next month before stepping back a day
		{"2025-01-31", PlanOneMonth, "2025-03-02"},
		{"2024-01-31", PlanOneMonth, "2024-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.start+" "+string(tt.plan), func(t *testing.T) {
			got, err := ComputeEndDate(mustDate(t, tt.start), tt.plan)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestComputeEndDateIsDayBeforeNextCycle(t *testing.T) {
	start := NewDate(2023, time.January, 1)
	for i := 0; i < 800; i++ {
		d := start.AddDays(i)
		for _, p := range Plans() {
			end, err := ComputeEndDate(d, p)
			require.NoError(t, err)
			next := Date{d.Time.AddDate(0, p.Months(), 0)}
			assert.Equal(t, next.AddDays(-1), end, "start %s plan %s", d, p)
			assert.True(t, end.After(d.Time) || end.Equal(d))
		}
	}
}

func TestComputeEndDateInvalidPlan(t *testing.T) {
	_, err := ComputeEndDate(NewDate(2025, time.January, 1), PlanType("2 Weeks"))
	assert.ErrorIs(t, err, ErrInvalidPlanType)

	_, err = EndDateFor("2025-01-01", "forever")
	assert.ErrorIs(t, err, ErrInvalidPlanType)

	_, err = EndDateFor("not-a-date", "1 Month")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParsePlanType(t *testing.T) {
	cases := map[string]PlanType{
		"1 Month":     PlanOneMonth,
		"1 month":     PlanOneMonth,
		"1-month":     PlanOneMonth,
		" 3 months ":  PlanThreeMonths,
		"3  MONTHS":   PlanThreeMonths,
		"6_months":    PlanSixMonths,
		"1 Year":      PlanOneYear,
		"12 months":   PlanOneYear,
	}
	for in, want := range cases {
		got, err := ParsePlanType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "2 months", "monthly", "1"} {
		_, err := ParsePlanType(in)
		assert.ErrorIs(t, err, ErrInvalidPlanType, in)
	}
}

func TestComputeStatus(t *testing.T) {
	end := mustDate(t, "2025-01-31")
	tests := []struct {
		today string
		want  Status
	}{
		{"2025-01-01", StatusActive},
		{"2025-01-27", StatusActive},
		{"2025-01-28", StatusExpiringSoon},
		{"2025-01-30", StatusExpiringSoon},
		{"2025-01-31", StatusExpiringSoon},
		{"2025-02-01", StatusExpired},
		{"2026-01-01", StatusExpired},
	}
	for _, tt := range tests {
		t.Run(tt.today, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStatus(end, mustDate(t, tt.today)))
		})
	}
}

func TestComputeStatusEndDateIsInclusive(t *testing.T) {
	start := NewDate(2024, time.January, 1)
	for i := 0; i < 400; i++ {
		end := start.AddDays(i)
		assert.NotEqual(t, StatusExpired, ComputeStatus(end, end), end.String())
		assert.Equal(t, StatusExpired, ComputeStatus(end, end.AddDays(1)), end.String())
	}
}

func TestDeriveStatus(t *testing.T) {
	today := NewDate(2025, time.January, 28)
	assert.Equal(t, StatusUnknown, DeriveStatus("", today))
	assert.Equal(t, StatusUnknown, DeriveStatus("31/01/2025", today))
	assert.Equal(t, StatusExpiringSoon, DeriveStatus("2025-01-31", today))
	assert.Equal(t, StatusExpiringSoon, DeriveStatus("2025-01-31T00:00:00Z", today))
	assert.Equal(t, StatusUnknown, ComputeStatus(Date{}, today))
}

func TestDaysRemainingIgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	lateNight := time.Date(2025, time.January, 28, 23, 59, 0, 0, loc)
	end := NewDate(2025, time.January, 31)
	assert.Equal(t, 3, DaysRemaining(end, Today(lateNight)))
	assert.Equal(t, 0, DaysRemaining(end, end))
	assert.Equal(t, -1, DaysRemaining(end, end.AddDays(1)))
}

func TestDaysRemainingFarDates(t *testing.T) {
	today := NewDate(2025, time.January, 1)
	end := NewDate(2400, time.January, 1)
	assert.Equal(t, 136965, DaysRemaining(end, today))
	assert.Equal(t, -136965, DaysRemaining(today, end))
	assert.Equal(t, StatusActive, ComputeStatus(end, today))

	first := NewDate(1, time.January, 1)
	last := NewDate(9999, time.December, 31)
	assert.Equal(t, 3652058, DaysRemaining(last, first))
}

func TestEndDateBoundsAgreeWithComputeStatus(t *testing.T) {
	today := NewDate(2025, time.March, 10)
	for offset := -10; offset <= 10; offset++ {
		end := today.AddDays(offset)
		status := ComputeStatus(end, today)
		from, to, ok := EndDateBounds(status, today)
		require.True(t, ok)
		if !from.IsZero() {
			assert.False(t, end.Before(from.Time), "offset %d", offset)
		}
		if !to.IsZero() {
			assert.False(t, end.After(to.Time), "offset %d", offset)
		}
	}
	_, _, ok := EndDateBounds(StatusUnknown, today)
	assert.False(t, ok)
}

func TestReminderDue(t *testing.T) {
	assert.True(t, ReminderDue(3))
	assert.True(t, ReminderDue(0))
	for _, d := range []int{-1, 1, 2, 4, 30} {
		assert.False(t, ReminderDue(d), d)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("expiring_soon")
	require.NoError(t, err)
	assert.Equal(t, StatusExpiringSoon, s)

	_, err = ParseStatus("inactive")
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		End   Date  `json:"end"`
		Start *Date `json:"start,omitempty"`
	}
	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"end":"2025-01-31","start":"2025-01-01T10:00:00Z"}`), &p))
	assert.Equal(t, NewDate(2025, time.January, 31), p.End)
	require.NotNil(t, p.Start)
	assert.Equal(t, "2025-01-01", p.Start.String())

	out, err := json.Marshal(payload{End: NewDate(2025, time.May, 31)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"end":"2025-05-31"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"end":"31-01-2025"}`), &p))
}

func TestDateScanAndValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-05-31", d.String())

	require.NoError(t, d.Scan([]byte("2025-06-01")))
	assert.Equal(t, "2025-06-01", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())

	v, err := NewDate(2025, time.May, 31).Value()
	require.NoError(t, err)
	assert.Equal(t, "2025-05-31", v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
