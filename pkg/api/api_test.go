package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/plot451/plot/pkg/app"
	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/domain/table"
	"github.com/plot451/plot/pkg/infrastructure/eventbus"
	"github.com/plot451/plot/pkg/infrastructure/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testServer struct {
	*Server
	http *httptest.Server
}

func newTestServer(t *testing.T, apiKey string) *testServer {
	t.Helper()
	bus := eventbus.New()
	t.Cleanup(bus.Close)
	container := app.NewContainer(bus, memory.NewColumnRepository(), memory.NewTableRepository())
	s := NewServer(Options{APIKey: apiKey}, container)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return &testServer{Server: s, http: ts}
}

// call sends body as JSON and decodes the response into out when non-nil.
func (ts *testServer) call(t *testing.T, method, path string, body, out interface{}) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, ts.http.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.http.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func ptr(f float64) *float64 { return &f }

func (ts *testServer) mkdir(t *testing.T, name string, parent *string) directoryJSON {
	t.Helper()
	var dir directoryJSON
	status := ts.call(t, http.MethodPost, "/api/directories", createDirectoryRequest{Name: name, ParentID: parent}, &dir)
	require.Equal(t, http.StatusCreated, status)
	return dir
}

func (ts *testServer) mkcol(t *testing.T, name, dir string, values ...*float64) columnJSON {
	t.Helper()
	var col columnJSON
	status := ts.call(t, http.MethodPost, "/api/columns", createColumnRequest{Name: name, DirectoryID: dir, Values: values}, &col)
	require.Equal(t, http.StatusCreated, status)
	return col
}

func columnNames(t tableJSON) []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, "")
	var body map[string]interface{}
	assert.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestDirectoryRoutes(t *testing.T) {
	ts := newTestServer(t, "")
	root := ts.mkdir(t, "root", nil)
	assert.Nil(t, root.ParentID)
	child := ts.mkdir(t, "child", &root.ID)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, root.ID, *child.ParentID)
	col := ts.mkcol(t, "price", root.ID, ptr(1), nil)

	var roots struct {
		Directories []directoryJSON `json:"directories"`
	}
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/directories", nil, &roots))
	require.Len(t, roots.Directories, 1)
	assert.Equal(t, root.ID, roots.Directories[0].ID)

	var contents directoryContentsJSON
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/directories/"+root.ID, nil, &contents))
	assert.Equal(t, "root", contents.Directory.Name)
	require.Len(t, contents.Columns, 1)
	assert.Equal(t, col.ID, contents.Columns[0].ID)
	assert.Len(t, contents.Columns[0].CellIDs, 2)
	require.Len(t, contents.Directories, 1)
	assert.Equal(t, child.ID, contents.Directories[0].ID)

	var renamed directoryJSON
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, "/api/directories/"+child.ID+"/name", renameRequest{Name: "kid"}, &renamed))
	assert.Equal(t, "kid", renamed.Name)

	var moved directoryJSON
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, "/api/directories/"+child.ID+"/parent", moveDirectoryRequest{}, &moved))
	assert.Nil(t, moved.ParentID)

	var errBody map[string]string
	assert.Equal(t, http.StatusConflict,
		ts.call(t, http.MethodPut, "/api/directories/"+root.ID+"/parent", moveDirectoryRequest{ParentID: &root.ID}, &errBody))

	assert.Equal(t, http.StatusNoContent, ts.call(t, http.MethodDelete, "/api/directories/"+root.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, "/api/columns/"+col.ID, nil, &errBody))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, "/api/directories/"+root.ID, nil, &errBody))
}

func TestColumnRoutes(t *testing.T) {
	ts := newTestServer(t, "")
	dir := ts.mkdir(t, "d", nil)
	other := ts.mkdir(t, "e", nil)
	col := ts.mkcol(t, "  weight ", dir.ID, ptr(1.5), nil, ptr(3))
	assert.Equal(t, "weight", col.Name)
	require.Len(t, col.Cells, 3)
	assert.Nil(t, col.Cells[1].Value)
	assert.Equal(t, 1.5, *col.Cells[0].Value)

	var cell cellJSON
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, "/api/columns/"+col.ID+"/cells", cellValueRequest{Value: ptr(7)}, &cell))
	assert.Equal(t, 7.0, *cell.Value)

	var edited cellJSON
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, "/api/columns/"+col.ID+"/cells/"+cell.ID, cellValueRequest{}, &edited))
	assert.Nil(t, edited.Value)

	order := []string{cell.ID, col.Cells[2].ID, col.Cells[1].ID, col.Cells[0].ID}
	var reordered columnJSON
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, "/api/columns/"+col.ID+"/order", reorderRequest{Cells: order}, &reordered))
	got := make([]string, len(reordered.Cells))
	for i, c := range reordered.Cells {
		got[i] = c.ID
	}
	assert.Equal(t, order, got)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest,
		ts.call(t, http.MethodPut, "/api/columns/"+col.ID+"/order", reorderRequest{Cells: order[:2]}, &errBody))

	assert.Equal(t, http.StatusNoContent, ts.call(t, http.MethodDelete, "/api/columns/"+col.ID+"/cells/"+cell.ID, nil, nil))

	var fetched columnJSON
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/columns/"+col.ID, nil, &fetched))
	assert.Len(t, fetched.Cells, 3)

	var moved columnJSON
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, "/api/columns/"+col.ID+"/directory", moveColumnRequest{DirectoryID: other.ID}, &moved))
	assert.Equal(t, other.ID, moved.DirectoryID)

	var renamed columnJSON
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, "/api/columns/"+col.ID+"/name", renameRequest{Name: "mass"}, &renamed))
	assert.Equal(t, "mass", renamed.Name)

	assert.Equal(t, http.StatusNoContent, ts.call(t, http.MethodDelete, "/api/columns/"+col.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, "/api/columns/"+col.ID, nil, &errBody))
}

func TestTableRoutes(t *testing.T) {
	ts := newTestServer(t, "")
	dir := ts.mkdir(t, "d", nil)
	a := ts.mkcol(t, "a", dir.ID, ptr(1))
	b := ts.mkcol(t, "b", dir.ID, ptr(2))
	c := ts.mkcol(t, "c", dir.ID)
	dupe := ts.mkcol(t, "a", dir.ID)

	var created tableJSON
	require.Equal(t, http.StatusCreated,
		ts.call(t, http.MethodPost, "/api/tables", createTableRequest{Name: "t", Columns: []string{a.ID, b.ID}}, &created))
	assert.Equal(t, []string{"a", "b"}, columnNames(created))
	assert.Equal(t, 1.0, *created.Columns[0].Cells[0].Value)

	var errBody map[string]string
	assert.Equal(t, http.StatusConflict,
		ts.call(t, http.MethodPost, "/api/tables", createTableRequest{Name: "t2", Columns: []string{a.ID, dupe.ID}}, &errBody))
	assert.Contains(t, errBody["error"], "a")

	var ref tableRefJSON
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPost, "/api/tables/"+created.ID+"/columns/move",
		moveTableColumnRequest{Target: b.ID, Destination: a.ID, Position: positionFront}, &ref))
	assert.Equal(t, []string{b.ID, a.ID}, ref.Columns)

	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, "/api/tables/"+created.ID+"/columns/insert",
		insertTableColumnRequest{Column: c.ID, Destination: b.ID, Position: positionBehind}, &ref))
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, ref.Columns)

	assert.Equal(t, http.StatusConflict, ts.call(t, http.MethodPost, "/api/tables/"+created.ID+"/columns/insert",
		insertTableColumnRequest{Column: dupe.ID, Destination: b.ID, Position: positionBehind}, &errBody))
	assert.Equal(t, http.StatusBadRequest, ts.call(t, http.MethodPost, "/api/tables/"+created.ID+"/columns/move",
		moveTableColumnRequest{Target: b.ID, Destination: a.ID, Position: "sideways"}, &errBody))

	require.Equal(t, http.StatusOK, ts.call(t, http.MethodDelete, "/api/tables/"+created.ID+"/columns/"+c.ID, nil, &ref))
	assert.Equal(t, []string{b.ID, a.ID}, ref.Columns)

	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPut, "/api/tables/"+created.ID+"/name", renameRequest{Name: "renamed"}, &ref))
	assert.Equal(t, "renamed", ref.Name)

	var list struct {
		Tables []tableJSON `json:"tables"`
	}
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/tables", nil, &list))
	require.Len(t, list.Tables, 1)
	assert.Equal(t, []string{"b", "a"}, columnNames(list.Tables[0]))

	assert.Equal(t, http.StatusNoContent, ts.call(t, http.MethodDelete, "/api/tables/"+created.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, "/api/tables/"+created.ID, nil, &errBody))

	var fetched columnJSON
	assert.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/columns/"+a.ID, nil, &fetched), "columns outlive their table")
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer(t, "")
	var errBody map[string]string

	assert.Equal(t, http.StatusBadRequest, ts.call(t, http.MethodPost, "/api/directories", map[string]string{"name": " "}, &errBody))
	assert.Equal(t, http.StatusBadRequest, ts.call(t, http.MethodPost, "/api/directories", map[string]string{"title": "x"}, &errBody))
	assert.Contains(t, errBody["error"], "invalid request body")
	assert.Equal(t, http.StatusBadRequest, ts.call(t, http.MethodPost, "/api/columns", map[string]string{"name": "x"}, &errBody))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, "/api/nowhere", nil, &errBody))
	assert.Equal(t, http.StatusMethodNotAllowed, ts.call(t, http.MethodPatch, "/api/tables", nil, &errBody))
	assert.Equal(t, http.StatusBadRequest, ts.call(t, http.MethodPost, "/api/tables", createTableRequest{Name: "t"}, &errBody))
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "bad request", err: badRequest("nope"), want: http.StatusBadRequest},
		{name: "parse error", err: &column.CellValueParseError{Input: "x", Err: errors.New("bad")}, want: http.StatusBadRequest},
		{name: "column not found", err: column.ColumnNotFound("1"), want: http.StatusNotFound},
		{name: "not all columns", err: &column.NotAllColumnsFoundError{IDs: []column.ID{"1"}}, want: http.StatusNotFound},
		{name: "table not found", err: table.NotFound("1"), want: http.StatusNotFound},
		{name: "column in use", err: &app.ColumnInUseError{ColumnID: "1", TableID: "2"}, want: http.StatusConflict},
		{name: "duplicated names", err: &table.DuplicatedColumnNamesError{}, want: http.StatusConflict},
		{name: "cycle", err: fmt.Errorf("move: %w", column.ErrDirectoryCycle), want: http.StatusConflict},
		{name: "empty name", err: domain.ErrEmptyName, want: http.StatusBadRequest},
		{name: "not in table", err: &table.ColumnNotFoundError{ColumnID: "1"}, want: http.StatusBadRequest},
		{name: "unexpected", err: domain.Unexpected("save", errors.New("disk on fire")), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.err))
		})
	}
}

func TestAuth(t *testing.T) {
	ts := newTestServer(t, "secret")
	var body map[string]interface{}

	assert.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/health", nil, &body))
	assert.Equal(t, http.StatusUnauthorized, ts.call(t, http.MethodGet, "/api/tables", nil, &body))

	req, err := http.NewRequest(http.MethodGet, ts.http.URL+"/api/tables", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := ts.http.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = ts.http.Client().Get(ts.http.URL + "/api/tables?token=secret")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketStreamsDomainEvents(t *testing.T) {
	ts := newTestServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		ts.Hub().Run(ctx)
		close(hubDone)
	}()
	t.Cleanup(func() {
		cancel()
		<-hubDone
	})

	wsURL := "ws" + strings.TrimPrefix(ts.http.URL, "http") + "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello WSEvent
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Type)
	assert.Eventually(t, func() bool { return ts.Hub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	dir := ts.mkdir(t, "watched", nil)

	var frame struct {
		Type string            `json:"type"`
		Data eventbus.Envelope `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, string(domain.EventDirectoryCreated), frame.Type)
	assert.Equal(t, dir.ID, frame.Data.AggregateID)
}
