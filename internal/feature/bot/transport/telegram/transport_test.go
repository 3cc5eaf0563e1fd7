package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler はUpdateHandlerのモック実装です。
type recordingHandler struct {
	mu  sync.Mutex
	ids []int
}

func (h *recordingHandler) HandleUpdate(_ context.Context, u botApi.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids = append(h.ids, u.UpdateID)
}

func (h *recordingHandler) seen() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.ids...)
}

// fakeSource はUpdateSourceのモック実装です。
type fakeSource struct {
	ch      chan botApi.Update
	cfg     botApi.UpdateConfig
	stopped bool
}

func (s *fakeSource) GetUpdatesChan(cfg botApi.UpdateConfig) botApi.UpdatesChannel {
	s.cfg = cfg
	return s.ch
}

func (s *fakeSource) StopReceivingUpdates() { s.stopped = true }

func TestRunPolling_DispatchesUntilCancelled(t *testing.T) {
	t.Parallel()

	src := &fakeSource{ch: make(chan botApi.Update, 3)}
	src.ch <- botApi.Update{UpdateID: 1}
	src.ch <- botApi.Update{UpdateID: 2}

	h := &recordingHandler{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunPolling(ctx, src, h) }()

	require.Eventually(t, func() bool { return len(h.seen()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("RunPolling did not return after cancel")
	}
	assert.True(t, src.stopped)
	assert.Equal(t, 60, src.cfg.Timeout)
	assert.Equal(t, AllowedUpdates, src.cfg.AllowedUpdates)
	assert.ElementsMatch(t, []int{1, 2}, h.seen())
}

func TestRunPolling_ClosedChannel(t *testing.T) {
	t.Parallel()

	src := &fakeSource{ch: make(chan botApi.Update)}
	close(src.ch)

	assert.NoError(t, RunPolling(context.Background(), src, &recordingHandler{}))
}

type mapDeduper struct {
	mu   sync.Mutex
	seen map[int]bool
}

func (d *mapDeduper) FirstSeen(_ context.Context, id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[id] {
		return false
	}
	d.seen[id] = true
	return true
}

func TestWebhookHandler_Handle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	const body = `{"update_id": 555, "message": {"message_id": 1, "text": "/eur", "chat": {"id": 42, "type": "private"}}}`

	tests := []struct {
		name           string
		secretHeader   string
		body           string
		expectedStatus int
		expectedBody   string
		dispatched     []int
	}{
		{"accepted", "s3cret", body, http.StatusOK, `{"status":"ok"}`, []int{555}},
		{"wrong secret", "nope", body, http.StatusUnauthorized, `{"error":"invalid secret token"}`, nil},
		{"missing secret", "", body, http.StatusUnauthorized, `{"error":"invalid secret token"}`, nil},
		{"malformed json", "s3cret", `{"update_id":`, http.StatusBadRequest, `{"error":"invalid update"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := &recordingHandler{}
			wh := NewWebhookHandler(context.Background(), "s3cret", nil, h)
			router := gin.New()
			router.POST("/telegram/webhook", wh.Handle)

			req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.secretHeader != "" {
				req.Header.Set(SecretTokenHeader, tt.secretHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			wh.Wait()

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			assert.Equal(t, tt.dispatched, h.seen())
		})
	}
}

func TestWebhookHandler_DropsDuplicates(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := &recordingHandler{}
	wh := NewWebhookHandler(context.Background(), "", &mapDeduper{seen: map[int]bool{}}, h)
	router := gin.New()
	router.POST("/telegram/webhook", wh.Handle)

	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/telegram/webhook", strings.NewReader(`{"update_id": 7}`))
		router.ServeHTTP(w, req)
		return w
	}

	first := post()
	second := post()
	wh.Wait()

	assert.JSONEq(t, `{"status":"ok"}`, first.Body.String())
	assert.JSONEq(t, `{"status":"duplicate"}`, second.Body.String())
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, []int{7}, h.seen())
}

// fakeRequester はRequesterのモック実装です。
type fakeRequester struct {
	endpoint string
	params   botApi.Params
	resp     *botApi.APIResponse
	err      error
}

func (f *fakeRequester) MakeRequest(endpoint string, params botApi.Params) (*botApi.APIResponse, error) {
	f.endpoint = endpoint
	f.params = params
	return f.resp, f.err
}

func TestRegisterWebhook(t *testing.T) {
	t.Parallel()

	api := &fakeRequester{resp: &botApi.APIResponse{Ok: true}}
	require.NoError(t, RegisterWebhook(api, "https://bot.example.com/telegram/webhook", "s3cret"))

	assert.Equal(t, "setWebhook", api.endpoint)
	assert.Equal(t, "https://bot.example.com/telegram/webhook", api.params["url"])
	assert.Equal(t, "s3cret", api.params["secret_token"])
	assert.Equal(t, `["message","inline_query"]`, api.params["allowed_updates"])
}

func TestRegisterWebhook_Errors(t *testing.T) {
	t.Parallel()

	assert.Error(t, RegisterWebhook(&fakeRequester{err: errors.New("timeout")}, "https://x", ""))
	assert.Error(t, RegisterWebhook(&fakeRequester{resp: &botApi.APIResponse{Ok: false, Description: "bad url"}}, "https://x", ""))
}

// fakeRemover はWebhookRemoverのモック実装です。
type fakeRemover struct {
	got  botApi.Chattable
	resp *botApi.APIResponse
	err  error
}

func (f *fakeRemover) Request(c botApi.Chattable) (*botApi.APIResponse, error) {
	f.got = c
	return f.resp, f.err
}

func TestDeleteWebhook(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		api     *fakeRemover
		wantErr bool
	}{
		{"ok", &fakeRemover{resp: &botApi.APIResponse{Ok: true}}, false},
		{"transport error", &fakeRemover{err: errors.New("timeout")}, true},
		{"rejected", &fakeRemover{resp: &botApi.APIResponse{Ok: false, Description: "unauthorized"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := DeleteWebhook(tt.api)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.IsType(t, botApi.DeleteWebhookConfig{}, tt.api.got)
		})
	}
}
