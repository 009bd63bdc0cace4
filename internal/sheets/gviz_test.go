package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `/*O_o*/
google.visualization.Query.setResponse({"version":"0.6","reqId":"0","status":"ok","table":{"cols":[{"id":"A","label":"Timestamp","type":"datetime"},{"id":"B","label":"Heat No","type":"string"},{"id":"C","label":"Qty","type":"number"}],"rows":[{"c":[{"v":"Date(2024,5,1,9,30,0)","f":"01/06/2024 09:30:00"},{"v":"H-101"},{"v":12,"f":"12"}]},{"c":[null,{"v":"H-102"},null]}]}});`

func TestParseGviz(t *testing.T) {
	table, err := ParseGviz([]byte(samplePayload))
	require.NoError(t, err)
	require.Len(t, table.Cols, 3)
	require.Len(t, table.Rows, 2)

	first := table.Rows[0]
	assert.Equal(t, "H-101", first.String(1))
	assert.Equal(t, "12", first.String(2))
	assert.Equal(t, "01/06/2024 09:30:00", first.Display(0))

	ts, ok := first.Time(0)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC), ts)

	second := table.Rows[1]
	assert.Nil(t, second.Cell(0))
	assert.Equal(t, "", second.String(2))
	assert.Nil(t, second.Cell(10))
	_, ok = second.Float(2)
	assert.False(t, ok)
}

func TestParseGvizErrors(t *testing.T) {
	_, err := ParseGviz([]byte("no json here"))
	assert.ErrorIs(t, err, ErrMalformedResponse)

	_, err = ParseGviz([]byte(`setResponse({"status":"error","errors":[{"reason":"invalid_query","message":"bad","detailed_message":"Invalid sheet"}]})`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid sheet")
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"Date(2024,0,31)", time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)},
		{"Date(2024,11,5,14,2,9)", time.Date(2024, time.December, 5, 14, 2, 9, 0, time.UTC)},
		{"2024-06-03", time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)},
		{"2024-06-03T10:00:00.000Z", time.Date(2024, time.June, 3, 10, 0, 0, 0, time.UTC)},
		{"03/06/2024", time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)},
		{"3/6/2024", time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDateIn(tt.in, time.UTC)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %v got %v", tt.want, got)
		})
	}

	_, err := ParseDate("next tuesday")
	assert.Error(t, err)
}

func TestParseDateInSheetZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)

	got, err := ParseDateIn("2024-05-31T18:30:00.000Z", ist)
	require.NoError(t, err)
	assert.Equal(t, "01/06/2024", got.Format("02/01/2006"))
	assert.Equal(t, 0, got.Hour())

	got, err = ParseDateIn("2024-05-31T23:59:00+05:30", ist)
	require.NoError(t, err)
	assert.Equal(t, "31/05/2024", got.Format("02/01/2006"))

	// Wall-clock forms are not shifted.
	got, err = ParseDateIn("Date(2024,4,31)", ist)
	require.NoError(t, err)
	assert.Equal(t, "31/05/2024", got.Format("02/01/2006"))
	got, err = ParseDateIn("31/05/2024", ist)
	require.NoError(t, err)
	assert.Equal(t, "31/05/2024", got.Format("02/01/2006"))
}

func TestRowFloat(t *testing.T) {
	r := NewRow(90.5, "60", " 45% ", "n/a", true)
	f, ok := r.Float(0)
	assert.True(t, ok)
	assert.Equal(t, 90.5, f)
	f, ok = r.Float(1)
	assert.True(t, ok)
	assert.Equal(t, 60.0, f)
	f, ok = r.Float(2)
	assert.True(t, ok)
	assert.Equal(t, 45.0, f)
	_, ok = r.Float(3)
	assert.False(t, ok)
	assert.Equal(t, "true", r.String(4))
}

func TestClientFetchTable(t *testing.T) {
	var gotPath, gotSheet, gotHeaders string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSheet = r.URL.Query().Get("sheet")
		gotHeaders = r.URL.Query().Get("headers")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	c.BaseURL = srv.URL

	table, err := c.FetchTable(context.Background(), "abc123", "Working Day Calender")
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, "/abc123/gviz/tq", gotPath)
	assert.Equal(t, "Working Day Calender", gotSheet)
	assert.Equal(t, "1", gotHeaders)
}

func TestClientFetchTableStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.Client())
	c.BaseURL = srv.URL
	_, err := c.FetchTable(context.Background(), "abc123", "Planning")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")

	_, err = c.FetchTable(context.Background(), "", "Planning")
	assert.Error(t, err)
}
