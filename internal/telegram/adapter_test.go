package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/agentdeck/internal/agents"
	"github.com/user/agentdeck/internal/types"
)

func TestSplitMessage(t *testing.T) {
	short := "Hello world"
	assert.Equal(t, []string{short}, splitMessage(short))
}

func TestSplitMessageLong(t *testing.T) {
	long := strings.Repeat("a", 5000)
	parts := splitMessage(long)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], maxTelegramMessage)
}

func TestFormatToast(t *testing.T) {
	got := formatToast(types.Toast{Type: types.ToastWarning, Title: "Supply Alert", Message: "Widget Pro X1 is running low (9 days remaining)"})
	assert.Equal(t, "⚠️ *Supply Alert*\nWidget Pro X1 is running low (9 days remaining)", got)
	// unknown types get the info icon
	assert.True(t, strings.HasPrefix(formatToast(types.Toast{Type: "odd", Title: "x"}), "ℹ️"))
}

func TestFormatStatus(t *testing.T) {
	got := formatStatus([]agents.Stats{
		{Name: "leadAgent", Active: true, Processed: 4},
		{Name: "supplyAgent", Processed: 0},
	})
	assert.Equal(t, "leadAgent: active, processed 4\nsupplyAgent: stopped, processed 0", got)
}

// fakeAPI answers getMe and records sendMessage calls.
type fakeAPI struct {
	mu    sync.Mutex
	sent  []string
	chats []string
}

func (f *fakeAPI) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"deck","username":"deckbot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			assert.NoError(t, r.ParseForm())
			f.mu.Lock()
			f.sent = append(f.sent, r.PostForm.Get("text"))
			f.chats = append(f.chats, r.PostForm.Get("chat_id"))
			f.mu.Unlock()
			fmt.Fprint(w, `{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
		default:
			http.NotFound(w, r)
		}
	}
}

func TestAdapterNotify(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	a, err := NewWithEndpoint("TEST", srv.URL+"/bot%s/%s", 42, nil)
	require.NoError(t, err)
	err = a.Notify(context.Background(), types.Toast{Type: types.ToastSuccess, Title: "Order Generated", Message: "Purchase order created for 190 units of Control Module"})
	require.NoError(t, err)

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.sent, 1)
	assert.Equal(t, "42", api.chats[0])
	assert.Contains(t, api.sent[0], "*Order Generated*")
}

func TestAdapterNotifyWithoutChat(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler(t))
	defer srv.Close()

	a, err := NewWithEndpoint("TEST", srv.URL+"/bot%s/%s", 0, nil)
	require.NoError(t, err)
	assert.Error(t, a.Notify(context.Background(), types.Toast{Title: "x"}), "no chat id")
}
