package queue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hmweb77/macaroness/internal/model"
)

func sampleEvent() OrderPlacedEvent {
	placed := time.Date(2025, 11, 12, 15, 30, 0, 0, time.UTC)
	return NewOrderPlacedEvent(model.Order{
		ID:            "0b6f3d1e-8c7a-4a52-9f0e-3f3f7c1d2a10",
		OrderNumber:   "K7Q2M9XA",
		DateKey:       "2025-11-14",
		BoxSize:       24,
		CustomerPhone: "212611223344",
		CustomerName:  "Yasmine",
		Address:       "12 rue Oued Sebou, Agdal",
		City:          "Rabat",
		DeliveryHours: 24,
		BoxPrice:      95,
		DeliveryPrice: 30,
		TotalPrice:    125,
		Flavors: model.FlavorSelection{
			Flavors:         []string{"Citron", "Fraise"},
			ExcludedFlavors: []string{"Chocolat"},
		},
		CreatedAt: placed,
	}, 600)
}

func TestFormatSummary(t *testing.T) {
	loc := time.FixedZone("Africa/Casablanca", 3600)
	msg := FormatSummary(sampleEvent(), loc)

	assert.True(t, strings.HasPrefix(msg, "🎉 *NOUVELLE COMMANDE MACARONESS*"))
	assert.Contains(t, msg, "- Numéro: `#K7Q2M9XA`")
	assert.Contains(t, msg, "- Boîte: 24 pièces")
	assert.Contains(t, msg, "- *TOTAL: 125 MAD*")
	assert.Contains(t, msg, "- Téléphone: +212611223344")
	assert.Contains(t, msg, "- Adresse: 12 rue Oued Sebou, Agdal")
	assert.NotContains(t, msg, "Notes:")
	assert.Contains(t, msg, "- Date: vendredi 14 novembre 2025")
	assert.Contains(t, msg, "- Délai: 24h")
	assert.Contains(t, msg, "• Incluses: Citron, Fraise\n• Exclues: Chocolat")
	assert.Contains(t, msg, "⏰ Commande passée: 12/11/2025 16:30")
}

func TestFormatSummaryEscapesShopperText(t *testing.T) {
	ev := sampleEvent()
	ev.CustomerName = "sara_b*"
	ev.Address = "rue [12] `bis`"
	ev.Notes = "sonner 2x_svp"

	msg := FormatSummary(ev, time.UTC)
	assert.Contains(t, msg, `- Nom: sara\_b\*`+"\n")
	assert.Contains(t, msg, "- Adresse: rue \\[12] \\`bis\\`\n")
	assert.Contains(t, msg, `- Notes: sonner 2x\_svp`+"\n")
	assert.Contains(t, msg, "🎉 *NOUVELLE COMMANDE MACARONESS*")
}

func TestFlavorSummaryVariants(t *testing.T) {
	ev := sampleEvent()
	ev.SurpriseMe = true
	assert.Equal(t, "✨ Surprise! (Sélection du chef)", flavorSummary(ev))

	ev = sampleEvent()
	ev.ExcludedFlavors = nil
	assert.Equal(t, "• Toutes les saveurs (2 saveurs)", flavorSummary(ev))

	ev = sampleEvent()
	ev.Flavors = nil
	assert.Equal(t, "• Assortiment de la maison", flavorSummary(ev))
}

func TestHandleAppendsOrderLog(t *testing.T) {
	dir := t.TempDir()
	c := NewConsumer(ConsumerConfig{LogDir: filepath.Join(dir, "logs")}, zap.NewNop())

	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	require.NoError(t, c.Handle(context.Background(), body))
	require.NoError(t, c.Handle(context.Background(), body))

	data, err := os.ReadFile(filepath.Join(dir, "logs", "orders.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "number=K7Q2M9XA")
	assert.Contains(t, lines[0], `city="Rabat"`)
	assert.Contains(t, lines[0], "remaining=600")
}

func TestHandleRejectsMalformedBody(t *testing.T) {
	c := NewConsumer(ConsumerConfig{LogDir: t.TempDir()}, zap.NewNop())
	assert.Error(t, c.Handle(context.Background(), []byte("{not json")))
}

func TestHandleForwardsToTelegram(t *testing.T) {
	var (
		mu   sync.Mutex
		got  sendMessageRequest
		path string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7}}`))
	}))
	defer srv.Close()

	tg := NewTelegramClient("123:abc", "-1001", srv.URL)
	c := NewConsumer(ConsumerConfig{LogDir: t.TempDir(), Telegram: tg}, zap.NewNop())

	body, _ := json.Marshal(sampleEvent())
	require.NoError(t, c.Handle(context.Background(), body))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/bot123:abc/sendMessage", path)
	assert.Equal(t, "-1001", got.ChatID)
	assert.Equal(t, "Markdown", got.ParseMode)
	assert.Contains(t, got.Text, "K7Q2M9XA")
}

func TestTelegramErrorDoesNotFailHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	tg := NewTelegramClient("t", "c", srv.URL)
	err := tg.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")

	c := NewConsumer(ConsumerConfig{LogDir: t.TempDir(), Telegram: tg}, zap.NewNop())
	body, _ := json.Marshal(sampleEvent())
	assert.NoError(t, c.Handle(context.Background(), body))
}

func TestNewTelegramClientOptional(t *testing.T) {
	assert.Nil(t, NewTelegramClient("", "chat", ""))
	assert.Nil(t, NewTelegramClient("token", "", ""))
}
