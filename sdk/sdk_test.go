package sdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scorekit/adapters/memory"
	"scorekit/api/httpapi"
	"scorekit/auth"
	"scorekit/core"
	"scorekit/engine"
	"scorekit/realtime"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := realtime.NewRegistry()
	broadcaster := realtime.NewBroadcaster(nil, realtime.WithGone(reg.Remove))
	svc := engine.NewLeaderboardService(
		memory.New(),
		engine.NewEventBus(engine.DispatchSync),
		realtime.NewNotifier(reg, broadcaster),
		engine.Config{},
		nil,
	)
	t.Cleanup(svc.Close)

	authn := auth.NewStatic(map[string]auth.Identity{
		"token-alice": {UserID: "u1", Name: "Alice"},
	})
	srv := httptest.NewServer(httpapi.NewRouter(svc, reg, authn, nil, httpapi.Options{PathPrefix: "/api"}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	client := NewClient(srv.URL+"/api", WithAuthToken("token-alice"))

	require.NoError(t, client.Health(ctx))

	rec, err := client.SubmitScore(ctx, 300)
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, 300, rec.Score)

	_, err = client.SubmitScore(ctx, 900)
	require.NoError(t, err)

	top, err := client.TopScores(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, 900, top[0].Score)

	best, err := client.MyBestScore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 900, best.Score)

	ranking, err := client.MyRanking(ctx)
	require.NoError(t, err)
	require.NotNil(t, ranking.Rank)
	assert.Equal(t, 1, *ranking.Rank)

	st, err := client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalEntries)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := NewClient(srv.URL+"/api").SubmitScore(ctx, 100)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	_, err = NewClient(srv.URL+"/api", WithAuthToken("token-alice")).SubmitScore(ctx, -5)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestNotificationURL(t *testing.T) {
	client := NewClient("http://example.com/api")
	u, err := client.NotificationURL()
	require.NoError(t, err)
	assert.Equal(t, "ws://example.com/api/ws", u)

	client = NewClient("https://example.com/api/")
	u, err = client.NotificationURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://example.com/api/ws", u)
}

func TestConsumerReceivesNotifications(t *testing.T) {
	srv := newTestServer(t)
	client := NewClient(srv.URL+"/api", WithAuthToken("token-alice"))
	wsURL, err := client.NotificationURL()
	require.NoError(t, err)

	var mu sync.Mutex
	var got []core.Notification
	consumer := NewConsumer(wsURL, func(n core.Notification) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	}, WithReconnectDelay(50*time.Millisecond))

	done := make(chan error, 1)
	go func() { done <- consumer.Run(context.Background()) }()

	require.Eventually(t, func() bool { return consumer.State() == StateConnected },
		2*time.Second, 10*time.Millisecond)

	_, err = client.SubmitScore(context.Background(), 5000)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, core.NotificationTypeHighScore, got[0].Type)
	assert.Equal(t, 5000, got[0].Data.Score)
	mu.Unlock()

	consumer.Disconnect()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Disconnect")
	}
	assert.Equal(t, StateClosed, consumer.State())
}

func TestConsumerSkipsMalformedPayloads(t *testing.T) {
	upgrader := gorillaws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, []byte("not json")))
		require.NoError(t, conn.WriteMessage(gorillaws.TextMessage,
			[]byte(`{"type":"HIGH_SCORE_ACHIEVEMENT","data":{"user_id":"u1","user_name":"Alice","score":2000,"timestamp":1,"message":"m"}}`)))
		// keep the socket open until the client hangs up
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	var mu sync.Mutex
	var got []core.Notification
	consumer := NewConsumer("ws"+strings.TrimPrefix(srv.URL, "http"), func(n core.Notification) {
		mu.Lock()
		got = append(got, n)
		mu.Unlock()
	})
	go func() { _ = consumer.Run(context.Background()) }()
	t.Cleanup(consumer.Disconnect)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)
	mu.Lock()
	assert.Equal(t, 2000, got[0].Data.Score)
	mu.Unlock()
}

func TestConsumerGivesUpAfterMaxAttempts(t *testing.T) {
	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		http.Error(w, "no", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	consumer := NewConsumer("ws"+strings.TrimPrefix(srv.URL, "http"), nil,
		WithReconnectDelay(10*time.Millisecond),
		WithMaxReconnects(5))

	err := consumer.Run(context.Background())
	require.ErrorIs(t, err, ErrReconnectExhausted)
	assert.Equal(t, int32(5), dials.Load())
	assert.Equal(t, StateClosed, consumer.State())

	// terminal: a second Run must not dial again
	require.NoError(t, consumer.Run(context.Background()))
	assert.Equal(t, int32(5), dials.Load())
}

func TestConsumerReconnectsAfterDrop(t *testing.T) {
	upgrader := gorillaws.Upgrader{}
	var accepts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		n := accepts.Add(1)
		if n == 1 {
			conn.Close() // drop the first connection immediately
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	consumer := NewConsumer("ws"+strings.TrimPrefix(srv.URL, "http"), nil,
		WithReconnectDelay(10*time.Millisecond))
	go func() { _ = consumer.Run(context.Background()) }()
	t.Cleanup(consumer.Disconnect)

	require.Eventually(t, func() bool {
		return accepts.Load() >= 2 && consumer.State() == StateConnected
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	consumer := NewConsumer("ws://127.0.0.1:1/ws", nil,
		WithReconnectDelay(time.Hour),
		WithMaxReconnects(5))

	done := make(chan error, 1)
	go func() { done <- consumer.Run(context.Background()) }()

	require.Eventually(t, func() bool { return consumer.State() == StateDisconnected },
		2*time.Second, 5*time.Millisecond)
	consumer.Disconnect()

	select {
	case err := <-done:
		assert.False(t, errors.Is(err, ErrReconnectExhausted))
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Disconnect")
	}
}
