package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/homestead/internal/agents"
	"github.com/talgya/homestead/internal/economy"
	"github.com/talgya/homestead/internal/engine"
	"github.com/talgya/homestead/internal/persistence"
	"github.com/talgya/homestead/internal/world"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gen := world.SmallTestConfig()
	w, minds, err := engine.Populate(world.Generate(gen), engine.PopulationConfig{
		Farmsteads: 2,
		Household: agents.Household{
			PersonalCapacity: economy.Units(30),
			LarderCapacity:   economy.Units(200),
			FieldCapacity:    economy.Units(500),
			StartingFood:     40,
			StartingWater:    20,
			Residents:        1,
		},
		Params: agents.DefaultParams(),
		Seed:   gen.Seed,
	})
	require.NoError(t, err)
	sim, err := engine.NewSimulation(w, minds, engine.Options{Workers: 2, Seed: gen.Seed})
	require.NoError(t, err)
	return &Server{Sim: sim, Eng: engine.NewEngine(sim), AdminKey: "secret"}
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	var body map[string]any
	decode(t, do(t, s.Handler(), http.MethodGet, "/api/v1/status", "", ""), &body)

	assert.Equal(t, float64(0), body["tick"])
	assert.Equal(t, float64(len(s.Sim.World.Humans)), body["population"])
	assert.Equal(t, float64(1), body["speed"])
	assert.Equal(t, false, body["paused"])
	assert.Contains(t, body, "weather")
}

func TestHumansAndDetail(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	var humans []engine.HumanView
	decode(t, do(t, h, http.MethodGet, "/api/v1/humans", "", ""), &humans)
	require.Len(t, humans, len(s.Sim.World.Humans))
	assert.Equal(t, "farmer", humans[0].Job)

	var detail struct {
		Human      engine.HumanView `json:"human"`
		Store      engine.StoreView `json:"store"`
		Containers []struct {
			ID    int              `json:"id"`
			Store engine.StoreView `json:"store"`
		} `json:"containers"`
	}
	decode(t, do(t, h, http.MethodGet, "/api/v1/human/0", "", ""), &detail)
	assert.Equal(t, humans[0].Name, detail.Human.Name)
	assert.Equal(t, humans[0].Store, detail.Store.ID)
	require.Len(t, detail.Containers, 1)
	assert.Equal(t, uint32(40), detail.Containers[0].Store.Items["food"])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/human/99", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/human/abc", "", "").Code)
}

func TestMap(t *testing.T) {
	s := newTestServer(t)
	var body struct {
		Width  int          `json:"width"`
		Height int          `json:"height"`
		Tiles  []world.Tile `json:"tiles"`
		Sites  []struct {
			Kind string `json:"kind"`
		} `json:"sites"`
	}
	decode(t, do(t, s.Handler(), http.MethodGet, "/api/v1/map", "", ""), &body)

	g := s.Sim.World.Geography
	assert.Equal(t, g.Width, body.Width)
	assert.Equal(t, g.Height, body.Height)
	assert.Len(t, body.Tiles, g.Width*g.Height)
	assert.Len(t, body.Sites, len(s.Sim.World.Containers)+len(s.Sim.World.Crops))
}

func TestEventsAfterDayStart(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Sim.Step(context.Background()))

	var events []engine.Event
	decode(t, do(t, s.Handler(), http.MethodGet, "/api/v1/events?category=weather", "", ""), &events)
	require.NotEmpty(t, events)
	for _, e := range events {
		assert.Equal(t, "weather", e.Category)
	}
}

func TestSpeedRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":4}`, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":4}`, "wrong").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":1000}`, "secret").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/speed", `not json`, "secret").Code)

	var body map[string]float64
	decode(t, do(t, h, http.MethodPost, "/api/v1/speed", `{"speed":4}`, "secret"), &body)
	assert.Equal(t, 4.0, body["speed"])
	assert.Equal(t, 4.0, s.Eng.Speed())

	decode(t, do(t, h, http.MethodGet, "/api/v1/speed", "", ""), &body)
	assert.Equal(t, 4.0, body["speed"])

	s.AdminKey = ""
	assert.Equal(t, http.StatusForbidden, do(t, s.Handler(), http.MethodPost, "/api/v1/speed", `{"speed":2}`, "secret").Code)
}

func TestPauseResume(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	s.Eng.SetSpeed(5)

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodGet, "/api/v1/pause", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/pause", "", "").Code)

	var body map[string]any
	decode(t, do(t, h, http.MethodPost, "/api/v1/pause", "", "secret"), &body)
	assert.Equal(t, true, body["paused"])
	assert.True(t, s.Eng.Paused())

	decode(t, do(t, h, http.MethodPost, "/api/v1/resume", "", "secret"), &body)
	assert.Equal(t, false, body["paused"])
	assert.Equal(t, 5.0, body["speed"])
}

func TestStatsHistory(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s.Handler(), http.MethodGet, "/api/v1/stats/history", "", "").Code)

	db, err := persistence.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.SaveDailyReport(engine.DailyReport{Day: 0, Date: "Mon 1 Jan Y1", Meals: 7}))
	s.DB = db

	var reports []engine.DailyReport
	decode(t, do(t, s.Handler(), http.MethodGet, "/api/v1/stats/history", "", ""), &reports)
	require.Len(t, reports, 1)
	assert.Equal(t, 7, reports[0].Meals)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/speed", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStreamPushesSnapshots(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() engine.Snapshot {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		var snap engine.Snapshot
		require.NoError(t, json.NewDecoder(bytes.NewReader(msg)).Decode(&snap))
		return snap
	}

	first := read()
	assert.Equal(t, uint64(0), first.Tick)
	assert.Len(t, first.Humans, len(s.Sim.World.Humans))

	require.NoError(t, s.Sim.Step(context.Background()))
	second := read()
	assert.Equal(t, uint64(1), second.Tick)
}
