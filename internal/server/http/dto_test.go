package httpserver

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/honeyrae/internal/errs"
)

func TestParseTicketPatch(t *testing.T) {
	t.Parallel()

	p, err := parseTicketPatch(strings.NewReader(`{"description":"x","emergency":false,"customer":3}`))
	require.NoError(t, err)
	require.False(t, p.TouchesLifecycle())
	require.Equal(t, "x", *p.Description)
	require.False(t, *p.Emergency)

	p, err = parseTicketPatch(strings.NewReader(`{"employee":"12","date_completed":null}`))
	require.NoError(t, err)
	require.Equal(t, int64(12), *p.EmployeeID)
	require.True(t, p.DateCompletedSet)
	require.Nil(t, p.DateCompleted)
	require.False(t, p.CompletedNow)

	p, err = parseTicketPatch(strings.NewReader(`{"date_completed":"2024-01-01T02:00:00+02:00"}`))
	require.NoError(t, err)
	require.True(t, p.DateCompleted.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))

	p, err = parseTicketPatch(strings.NewReader(`{"date_completed":"2024-05-06"}`))
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), *p.DateCompleted)

	for _, body := range []string{
		`{"employee":"abc"}`,
		`{"employee":1.5}`,
		`{"employee":-1}`,
		`{"employee":{"id":1}}`,
		`{"date_completed":"yesterday"}`,
		`{"date_completed":17}`,
		`{"description":null}`,
		`{"emergency":"yes"}`,
		`null`,
		`{} {}`,
	} {
		_, err := parseTicketPatch(strings.NewReader(body))
		require.ErrorIs(t, err, errs.ErrBadRequest, body)
	}
}

func TestToTicketJSON_Unassigned(t *testing.T) {
	t.Parallel()

	tk := sampleTicket()
	tk.EmployeeID, tk.Employee, tk.DateCompleted = nil, nil, nil
	out := toTicketJSON(tk)
	require.Nil(t, out.Employee)
	require.Nil(t, out.DateCompleted)
	require.Equal(t, "Ann Lee", out.Customer.FullName)
}
