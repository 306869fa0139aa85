package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archboard/chat"
	"archboard/config"
	"archboard/diagram"
	"archboard/store"
)

type cannedAssistant struct {
	reply string
}

func (a *cannedAssistant) Propose(context.Context, string) (string, error) {
	return a.reply, nil
}

func newTestServer(t *testing.T, assistant chat.Assistant) (*Server, store.Store) {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	var chatSvc *chat.Service
	if assistant != nil {
		chatSvc = chat.NewService(assistant, st, nil)
	}
	return New(st, chatSvc, config.Default(), nil), st
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeProject(t *testing.T, rec *httptest.ResponseRecorder) (string, *diagram.Project) {
	t.Helper()
	var resp struct {
		ID      string           `json:"id"`
		Project *diagram.Project `json:"project"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID, resp.Project
}

func createProject(t *testing.T, handler http.Handler, name string) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/api/projects", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code)
	id, _ := decodeProject(t, rec)
	require.NotEmpty(t, id)
	return id
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv.Router(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestProjectLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	handler := srv.Router()

	id := createProject(t, handler, "checkout flow")

	rec := doJSON(t, handler, http.MethodGet, "/api/projects/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, project := decodeProject(t, rec)
	assert.Equal(t, "checkout flow", project.Name)
	assert.Empty(t, project.Nodes)

	rec = doJSON(t, handler, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var infos []store.ProjectInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, id, infos[0].ID)

	rec = doJSON(t, handler, http.MethodDelete, "/api/projects/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/projects/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplyOperationsEndpoint(t *testing.T) {
	srv, st := newTestServer(t, nil)
	handler := srv.Router()
	id := createProject(t, handler, "ops")

	body := `[{"op":"add_node","payload":{"type":"database","name":"Users DB"}},
	          {"op":"add_node","payload":{"type":"service"}}]`
	rec := doJSON(t, handler, http.MethodPost, "/api/projects/"+id+"/operations", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Operations int              `json:"operations"`
		Applied    int              `json:"applied"`
		Project    *diagram.Project `json:"project"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Operations)
	assert.Equal(t, 2, resp.Applied)
	require.Len(t, resp.Project.Nodes, 2)
	assert.Equal(t, "Users DB", resp.Project.Nodes[0].Data.Name)

	// The mutation is persisted, not just held in the session.
	stored, err := st.LoadProject(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, stored.Nodes, 2)
}

func TestApplyOperationsGarbageIsNoOp(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	handler := srv.Router()
	id := createProject(t, handler, "garbage")

	rec := doJSON(t, handler, http.MethodPost, "/api/projects/"+id+"/operations",
		"I could not produce operations, sorry!")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Operations int `json:"operations"`
		Applied    int `json:"applied"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Operations)
	assert.Zero(t, resp.Applied)
}

func TestLayoutEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	handler := srv.Router()
	id := createProject(t, handler, "layout")

	rec := doJSON(t, handler, http.MethodPost, "/api/projects/"+id+"/operations",
		`[{"op":"add_node","payload":{"type":"gateway"}},{"op":"add_node","payload":{"type":"service"}}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/projects/"+id+"/layout",
		map[string]interface{}{"algorithm": "grid"})
	require.Equal(t, http.StatusOK, rec.Code)

	_, project := decodeProject(t, rec)
	require.Len(t, project.Nodes, 2)
	assert.NotEqual(t, project.Nodes[0].Position, project.Nodes[1].Position)

	rec = doJSON(t, handler, http.MethodPost, "/api/projects/"+id+"/layout",
		map[string]interface{}{"algorithm": "hexagonal"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUndoRedoEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	handler := srv.Router()
	id := createProject(t, handler, "history")

	rec := doJSON(t, handler, http.MethodPost, "/api/projects/"+id+"/operations",
		`[{"op":"add_node","payload":{"type":"cache"}}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Stepped bool             `json:"stepped"`
		CanUndo bool             `json:"canUndo"`
		CanRedo bool             `json:"canRedo"`
		Project *diagram.Project `json:"project"`
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/projects/"+id+"/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Stepped)
	assert.Empty(t, resp.Project.Nodes)
	assert.True(t, resp.CanRedo)

	rec = doJSON(t, handler, http.MethodPost, "/api/projects/"+id+"/redo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Stepped)
	assert.Len(t, resp.Project.Nodes, 1)

	// Nothing left to redo.
	rec = doJSON(t, handler, http.MethodPost, "/api/projects/"+id+"/redo", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Stepped)
}

func TestReplaceProjectValidates(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	handler := srv.Router()
	id := createProject(t, handler, "replace")

	valid := diagram.NewProject("replaced")
	valid.Nodes = []diagram.Node{{ID: "a", Type: "service"}}
	rec := doJSON(t, handler, http.MethodPut, "/api/projects/"+id, valid)
	require.Equal(t, http.StatusOK, rec.Code)

	invalid := diagram.NewProject("broken")
	invalid.Nodes = []diagram.Node{{ID: "a", Type: "service"}}
	invalid.Edges = []diagram.Edge{{ID: "e1", Source: "a", Target: "ghost"}}
	rec = doJSON(t, handler, http.MethodPut, "/api/projects/"+id, invalid)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "ghost")

	// PUT to an unknown ID does not create a project.
	rec = doJSON(t, handler, http.MethodPut, "/api/projects/nope", valid)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatEndpoint(t *testing.T) {
	assistant := &cannedAssistant{
		reply: "```json\n[{\"op\":\"add_node\",\"payload\":{\"type\":\"queue\"}}]\n```",
	}
	srv, st := newTestServer(t, assistant)
	handler := srv.Router()
	id := createProject(t, handler, "chatty")

	rec := doJSON(t, handler, http.MethodPost, "/api/chat",
		map[string]string{"projectId": id, "message": "add a queue"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reply   string           `json:"reply"`
		Applied int              `json:"applied"`
		Project *diagram.Project `json:"project"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Applied)
	require.Len(t, resp.Project.Nodes, 1)
	assert.Equal(t, "queue", resp.Project.Nodes[0].Type)
	assert.True(t, strings.Contains(resp.Reply, "add_node"))

	messages, err := st.RecentMessages(context.Background(), id, 10)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestChatUnconfigured(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv.Router(), http.MethodPost, "/api/chat",
		map[string]string{"projectId": "x", "message": "hi"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSessionSurvivesAcrossRequests(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	handler := srv.Router()
	id := createProject(t, handler, "session")

	for i := 0; i < 3; i++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/projects/"+id+"/operations",
			fmt.Sprintf(`[{"op":"add_node","payload":{"type":"service","name":"svc-%d"}}]`, i))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// Three separate requests produced three separate history entries.
	for i := 0; i < 3; i++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/projects/"+id+"/undo", nil)
		var resp struct {
			Stepped bool `json:"stepped"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Stepped, "undo %d", i)
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/projects/"+id, nil)
	_, project := decodeProject(t, rec)
	assert.Empty(t, project.Nodes)
}
