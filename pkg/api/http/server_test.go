package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aescanero/spellforge/internal/application/orchestrator"
	"github.com/aescanero/spellforge/internal/application/registry"
	"github.com/aescanero/spellforge/internal/application/workers"
	"github.com/aescanero/spellforge/internal/plugins/core"
	"github.com/aescanero/spellforge/internal/plugins/discord"
	eventsmemory "github.com/aescanero/spellforge/pkg/adapters/events/memory"
	promcollector "github.com/aescanero/spellforge/pkg/adapters/metrics/prometheus"
	storagememory "github.com/aescanero/spellforge/pkg/adapters/storage/memory"
	"github.com/aescanero/spellforge/pkg/agent"
	"github.com/aescanero/spellforge/pkg/chat"
	"github.com/aescanero/spellforge/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeChat struct{}

func (fakeChat) GuildChannels(ctx context.Context, guildID string) ([]chat.Channel, error) {
	return []chat.Channel{{ID: "1", Name: "lobby", Type: chat.ChannelTypeGuildVoice}}, nil
}

func newTestServer(t *testing.T, ag *agent.Agent) *Server {
	t.Helper()

	logger := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	metrics := promcollector.NewCollector(reg)

	pool := workers.NewPool(2, metrics, logger, 0)
	require.NoError(t, pool.Start())

	plugins := registry.Load(core.Plugin{}, discord.Plugin{})
	manager := orchestrator.NewManager(
		plugins,
		pool,
		eventsmemory.NewInMemoryEventBus(logger),
		storagememory.NewInMemoryStateStorage(),
		metrics,
		ag,
		logger,
		time.Second,
		time.Second,
	)

	t.Cleanup(func() {
		_ = manager.Shutdown(context.Background())
		_ = pool.Shutdown(context.Background())
	})

	return NewServer(&Config{
		Port:     0,
		Spells:   manager,
		Registry: plugins,
		Health:   pool.Health(),
		Agent:    ag,
		Gatherer: reg,
		Logger:   logger,
	})
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func echoRequest() SpellSubmitRequest {
	return SpellSubmitRequest{
		Spell: &domain.Spell{
			ID:      "echo",
			Version: "1",
			Nodes: map[string]domain.SpellNode{
				"in":   {ID: "in", Component: core.ComponentInput, Data: map[string]any{"inputName": "msg"}},
				"echo": {ID: "echo", Component: core.ComponentEcho},
			},
			Connections: []domain.Connection{
				{From: "in", FromOutput: "output", To: "echo", ToInput: "string"},
			},
		},
		Inputs: map[string]any{"msg": "hi there"},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitAndFetchResult(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPost, "/api/v1/spells", echoRequest())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var submitted SpellSubmitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitted))
	require.NotEmpty(t, submitted.ExecutionID)

	var result struct {
		Status  domain.ExecutionStatus    `json:"status"`
		Outputs map[string]map[string]any `json:"outputs"`
	}
	require.Eventually(t, func() bool {
		w := do(t, s, http.MethodGet, "/api/v1/spells/"+submitted.ExecutionID+"/result", nil)
		if w.Code != http.StatusOK {
			return false
		}
		return json.Unmarshal(w.Body.Bytes(), &result) == nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, domain.ExecutionStatusCompleted, result.Status)
	assert.Equal(t, "hi there", result.Outputs["echo"]["output"])

	w = do(t, s, http.MethodGet, "/api/v1/spells/"+submitted.ExecutionID+"/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"spell_id":"echo"`)

	w = do(t, s, http.MethodGet, "/api/v1/spells", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), submitted.ExecutionID)

	w = do(t, s, http.MethodPost, "/api/v1/spells/"+submitted.ExecutionID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSubmitInvalidSpell(t *testing.T) {
	s := newTestServer(t, nil)

	req := echoRequest()
	req.Spell.Nodes["echo"] = domain.SpellNode{ID: "echo", Component: "Missing"}

	w := do(t, s, http.MethodPost, "/api/v1/spells", req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_SPELL", body.Error.Code)

	w = do(t, s, http.MethodPost, "/api/v1/spells", map[string]any{"inputs": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownExecution(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/api/v1/spells/nope", "/api/v1/spells/nope/status", "/api/v1/spells/nope/result"} {
		w := do(t, s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}

	w := do(t, s, http.MethodPost, "/api/v1/spells/nope/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListComponentsAndTools(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/api/v1/components", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var catalog struct {
		Components []ComponentResponse `json:"components"`
		Plugins    []string            `json:"plugins"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &catalog))
	assert.Equal(t, []string{"core", "discord"}, catalog.Plugins)

	names := make([]string, 0, len(catalog.Components))
	for _, c := range catalog.Components {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{core.ComponentEcho, core.ComponentInput, discord.ComponentVoiceChannels}, names)

	w = do(t, s, http.MethodGet, "/api/v1/tools", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tools":["discord_list_channels"]}`, w.Body.String())
}

func TestInvokeTool(t *testing.T) {
	s := newTestServer(t, &agent.Agent{Discord: &agent.Discord{Client: fakeChat{}, GuildID: "g"}})

	w := do(t, s, http.MethodPost, "/api/v1/tools/discord_list_channels/invoke", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res ToolInvokeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "``` Voice Channels\n#lobby\n```", res.Result)

	w = do(t, s, http.MethodPost, "/api/v1/tools/missing/invoke", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
