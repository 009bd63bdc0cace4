package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptClientSubmit(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"ok"}`))
	}))
	defer srv.Close()

	c := NewScriptClient(srv.URL, srv.Client())
	resp, err := c.Submit(context.Background(), Request{
		Action:    ActionInsert,
		SheetName: "Planning",
		RowData:   []any{"01/06/2024", "H-101", 12},
		Fields:    map[string]string{"key": "H-101"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	assert.Equal(t, "insert", form["action"])
	assert.Equal(t, "Planning", form["sheetName"])
	assert.Equal(t, "H-101", form["key"])
	var row []any
	require.NoError(t, json.Unmarshal([]byte(form["rowData"]), &row))
	assert.Equal(t, []any{"01/06/2024", "H-101", 12.0}, row)
	_, hasTasks := form["tasks"]
	assert.False(t, hasTasks)
}

func TestScriptClientSubmitFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"Sheet not found"}`))
	}))
	defer srv.Close()

	c := NewScriptClient(srv.URL, srv.Client())
	_, err := c.Submit(context.Background(), Request{Action: ActionInsert, SheetName: "Nope"})
	var se *ScriptError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Sheet not found", se.Message)
}

func TestScriptClientSubmitHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewScriptClient(srv.URL, srv.Client())
	_, err := c.Submit(context.Background(), Request{Action: ActionUpdateTasks, Tasks: []string{"x"}})
	var se *ScriptError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Status)
}

func TestScriptClientFireIgnoresBody(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("<html>opaque</html>"))
	}))
	defer srv.Close()

	c := NewScriptClient(srv.URL, srv.Client())
	err := c.Fire(context.Background(), Request{Action: ActionUpdateTimestamp, SheetName: "Planning"})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestScriptClientNotConfigured(t *testing.T) {
	c := NewScriptClient("", nil)
	_, err := c.Submit(context.Background(), Request{Action: ActionInsert})
	assert.Error(t, err)
	assert.Error(t, c.Fire(context.Background(), Request{Action: ActionInsert}))
}
