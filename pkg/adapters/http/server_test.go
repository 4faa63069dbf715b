package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/remodel"
	"github.com/aretw0/remodel/internal/testutils"
	"github.com/aretw0/remodel/pkg/adapters/memory"
	"github.com/aretw0/remodel/pkg/adapters/simulator"
	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/ports"
	"github.com/aretw0/remodel/pkg/service"
	"github.com/aretw0/remodel/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler http.Handler
	server  *Server
	clock   *testutils.FakeClock
}

func newFixture(t *testing.T, opts ...remodel.Option) *fixture {
	t.Helper()
	clock := testutils.NewFakeClock()
	base := []remodel.Option{
		remodel.WithEngineProvider(simulator.NewProvider(simulator.WithAutoRespond(true))),
		remodel.WithClock(clock),
	}
	manager := session.NewManager[*remodel.Session](memory.NewStore())
	svc := service.New(manager, service.SessionBuilder(append(base, opts...)...))
	t.Cleanup(func() { _ = svc.Close() })

	var server *Server
	handler := NewHandler(svc, WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("remodel_up 1\n"))
	})), func(s *Server) { server = s })
	return &fixture{handler: handler, server: server, clock: clock}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) create(t *testing.T, family domain.Family) *domain.Snapshot {
	t.Helper()
	w := f.do(t, http.MethodPost, "/sessions", CreateSessionRequest{Family: family})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	return &snap
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t, domain.FamilyFloorplan)
	assert.Equal(t, domain.PhaseNoFloor, snap.Phase)
	assert.NotEmpty(t, snap.SessionID)
	base := "/sessions/" + snap.SessionID

	w := f.do(t, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{snap.SessionID}, decodeBody[[]string](t, w))

	w = f.do(t, http.MethodPost, base+"/actions", domain.NewAction(domain.ActionStartScan))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decodeBody[ActionResponse](t, w)
	assert.Equal(t, domain.PhaseScanningFloor, res.Result.To)
	assert.Equal(t, domain.PhaseSettingCorners, res.Snapshot.Phase)

	w = f.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.PhaseSettingCorners, decodeBody[domain.Snapshot](t, w).Phase)

	w = f.do(t, http.MethodPost, base+"/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.PhaseNoFloor, decodeBody[domain.Snapshot](t, w).Phase)

	w = f.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestAction_GuardFailure(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t, domain.FamilyFloorplan)

	w := f.do(t, http.MethodPost, "/sessions/"+snap.SessionID+"/actions", domain.NewAction(domain.ActionFinishHeight))

	assert.Equal(t, http.StatusConflict, w.Code)
	body := decodeBody[ErrorResponse](t, w)
	assert.Equal(t, domain.NotAvailable(domain.ActionFinishHeight, domain.PhaseNoFloor), body.Reason)
}

func TestRequestAction_BadInput(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t, domain.FamilyLegacy)
	base := "/sessions/" + snap.SessionID

	req := httptest.NewRequest(http.MethodPost, base+"/actions", strings.NewReader("{"))
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, base+"/actions", domain.NewAction("fly"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/sessions", CreateSessionRequest{Family: "castle"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/sessions/missing/actions", domain.NewAction(domain.ActionTapSurface))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSwitchFamily(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t, domain.FamilyLegacy)
	path := "/sessions/" + snap.SessionID + "/family"

	w := f.do(t, http.MethodPost, path, FamilyRequest{Family: domain.FamilyShader})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	sw := decodeBody[SwitchResponse](t, w)
	assert.Equal(t, domain.SwitchApplied, sw.Decision.Outcome)
	assert.True(t, sw.Snapshot.TabsLocked)

	w = f.do(t, http.MethodPost, path, FamilyRequest{Family: domain.FamilyFloorplan})
	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Equal(t, domain.SwitchLocked, decodeBody[SwitchResponse](t, w).Decision.Outcome)

	f.clock.Advance(5 * time.Second)
	w = f.do(t, http.MethodPost, path, FamilyRequest{Family: domain.FamilyFloorplan})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnsupportedDevice(t *testing.T) {
	f := newFixture(t, remodel.WithCapabilities(ports.StaticCapabilities{}))

	w := f.do(t, http.MethodPost, "/sessions", CreateSessionRequest{Family: domain.FamilyRoomPlan})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	snap := f.create(t, domain.FamilyLegacy)
	w = f.do(t, http.MethodPost, "/sessions/"+snap.SessionID+"/family", FamilyRequest{Family: domain.FamilyLidar})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	sw := decodeBody[SwitchResponse](t, w)
	assert.Equal(t, domain.UnsupportedMessage(domain.FamilyLidar), sw.Snapshot.Notice)
}

func TestSelection(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t, domain.FamilyShader)
	path := "/sessions/" + snap.SessionID + "/selection"
	color, texture, bad := 2, 0, 40

	w := f.do(t, http.MethodPost, path, service.SelectionRequest{Color: &color, Texture: &texture})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeBody[domain.Snapshot](t, w)
	assert.Equal(t, 2, got.Selection.ColorIndex)
	assert.Equal(t, 0, got.Selection.TextureIndex)

	w = f.do(t, http.MethodPost, path, service.SelectionRequest{TouchMode: &bad})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEngineInspection(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t, domain.FamilyRoomPlan)
	base := "/sessions/" + snap.SessionID

	w := f.do(t, http.MethodGet, base+"/engine/commands", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cmds := decodeBody[[]domain.Command](t, w)
	require.NotEmpty(t, cmds)
	assert.Equal(t, domain.CommandStartScene, cmds[0].Kind)

	w = f.do(t, http.MethodPost, base+"/engine/events", domain.Event{Kind: domain.EventInstruction, Text: "Move closer"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "Move closer", decodeBody[domain.Snapshot](t, w).Instruction)

	w = f.do(t, http.MethodPost, base+"/engine/events", domain.Event{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthInfoMetrics(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")

	w = f.do(t, http.MethodGet, "/info", nil)
	assert.Contains(t, w.Body.String(), remodel.Version)

	w = f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, "remodel_up 1\n", w.Body.String())
}

func TestSubscribeEvents_Session(t *testing.T) {
	f := newFixture(t)
	snap := f.create(t, domain.FamilyFloorplan)
	base := "/sessions/" + snap.SessionID

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest(http.MethodGet, base+"/events?watch=phase", nil).WithContext(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.handler.ServeHTTP(wSub, reqSub)
	}()

	require.Eventually(t, func() bool {
		return f.server.Streams.Subscribers(snap.SessionID) == 1
	}, time.Second, 10*time.Millisecond)

	w := f.do(t, http.MethodPost, base+"/actions", domain.NewAction(domain.ActionStartScan))
	require.Equal(t, http.StatusOK, w.Code)

	cancel()
	<-done

	output := wSub.Body.String()
	assert.Contains(t, output, "event: ping")
	assert.Contains(t, output, `"phase":"SettingCorners"`)
}

func TestSubscribeEvents_UnknownSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/sessions/missing/events", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWatched(t *testing.T) {
	phase := domain.PhasePainting
	data, err := json.Marshal(domain.SnapshotDiff{SessionID: "s", Phase: &phase})
	require.NoError(t, err)

	assert.True(t, watched(string(data), []string{"selection", " phase"}))
	assert.False(t, watched(string(data), []string{"selection", "tabs"}))
}
