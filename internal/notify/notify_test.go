package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Freeeeeet/tenancy_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type users map[int64]*model.User

func (u users) GetUser(_ context.Context, id int64) (*model.User, error) {
	if id < 0 {
		return nil, errors.New("db down")
	}
	return u[id], nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []*bot.SendMessageParams
	err  error
}

func (s *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, params)
	return &models.Message{ID: len(s.sent)}, nil
}

var lateFee = model.Notification{
	RecipientID: 7,
	Type:        model.NotificationPaymentLateFee,
	Message:     "A late fee of 500.00 was added to your bill due 2025-05-25",
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "⏰ A late fee of 500.00 was added to your bill due 2025-05-25", Format(lateFee))
	assert.Equal(t, "🔔 hello", Format(model.Notification{Type: "unknown", Message: "hello"}))

	for typ := range typeEmoji {
		assert.False(t, strings.HasPrefix(Format(model.Notification{Type: typ}), "🔔"), typ)
	}
}

func TestTelegramNotifier(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, users{7: {ID: 7, TelegramID: 555}}, zap.NewNop())

	require.NoError(t, n.Notify(ctx, lateFee))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(555), sender.sent[0].ChatID)
	assert.Equal(t, Format(lateFee), sender.sent[0].Text)

	err := n.Notify(ctx, model.Notification{RecipientID: 8, Type: model.NotificationNewBooking})
	assert.ErrorContains(t, err, "recipient 8 not found")

	err = n.Notify(ctx, model.Notification{RecipientID: -1})
	assert.ErrorContains(t, err, "get recipient")

	sender.err = errors.New("bad gateway")
	err = n.Notify(ctx, lateFee)
	assert.ErrorContains(t, err, "bad gateway")
}

func TestTelegramNotifierAgainstBotAPI(t *testing.T) {
	var (
		mu     sync.Mutex
		chatID string
		text   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			http.NotFound(w, r)
			return
		}
		mu.Lock()
		chatID = r.FormValue("chat_id")
		text = r.FormValue("text")
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"message_id": 1,
				"date":       0,
				"chat":       map[string]any{"id": 555, "type": "private"},
				"text":       text,
			},
		})
	}))
	defer srv.Close()

	b, err := bot.New("123:test", bot.WithServerURL(srv.URL), bot.WithSkipGetMe())
	require.NoError(t, err)

	n := NewTelegramNotifier(b, users{7: {ID: 7, TelegramID: 555}}, zap.NewNop())
	require.NoError(t, n.Notify(context.Background(), lateFee))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "555", chatID)
	assert.Equal(t, Format(lateFee), text)
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLogNotifier(zap.NewNop()).Notify(context.Background(), lateFee))
}
