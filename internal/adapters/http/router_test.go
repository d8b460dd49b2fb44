package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genudine/ps2-discord-room-bot/internal/app"
	"github.com/genudine/ps2-discord-room-bot/internal/core"
	"github.com/genudine/ps2-discord-room-bot/internal/core/coretest"
	"github.com/genudine/ps2-discord-room-bot/internal/domain"
)

func newTestRouter(t *testing.T) (*gin.Engine, *coretest.Gateway) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gw := coretest.NewGateway()
	gw.AddCategory("1", "50")
	gw.AddVoice("1", "50", "100")
	gw.AddVoice("1", "50", "101")
	reg, err := app.NewWatchRegistry([]string{"1:100", "2:200"})
	require.NoError(t, err)
	pruner := app.NewRoomPruner(gw, 0)

	return SetupRouter("test", Deps{
		Registry: reg,
		Pruner:   pruner,
		Sweeper:  app.NewSweeper(reg, pruner, app.DefaultSweepInterval, 1),
	}), gw
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequestWithContext(context.Background(), method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestWatchList(t *testing.T) {
	r, _ := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/watch")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Watch []app.WatchEntry `json:"watch"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []app.WatchEntry{{GuildID: "1", TriggerID: "100"}, {GuildID: "2", TriggerID: "200"}}, body.Watch)
}

func TestManualPrune(t *testing.T) {
	r, gw := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/watch/1/prune")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []domain.ChannelID{"101"}, gw.DeletedIDs())

	var body struct {
		Deleted []domain.ChannelID `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []domain.ChannelID{"101"}, body.Deleted)
}

func TestManualPruneErrors(t *testing.T) {
	r, _ := newTestRouter(t)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/api/watch/9/prune").Code)
	// guild 2's trigger does not exist on the platform
	assert.Equal(t, http.StatusBadGateway, do(r, http.MethodPost, "/api/watch/2/prune").Code)
}

func TestManualSweep(t *testing.T) {
	r, gw := newTestRouter(t)

	w := do(r, http.MethodPost, "/api/sweep")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []domain.ChannelID{"101"}, gw.DeletedIDs())

	var body struct {
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	assert.Contains(t, body.Results[1]["error"], core.ErrNotFound.Error())
}
