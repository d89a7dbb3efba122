package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dailyreport/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("hub-test-secret")

func signToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": "employee",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return s
}

func newTestServer(t *testing.T, allowed uuid.UUID) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(logger.Discard())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		ServeWs(hub, c, testSecret, func(_ context.Context, userID, _ uuid.UUID) error {
			if userID != allowed {
				return errors.New("no access")
			}
			return nil
		})
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return hub, srv
}

func wsURL(srv *httptest.Server, token, reportID string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token + "&report_id=" + reportID
}

func TestHubDeliversToSubscribers(t *testing.T) {
	user := uuid.New()
	hub, srv := newTestServer(t, user)
	reportID := uuid.NewString()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, signToken(t, user), reportID), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers(reportID) == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(uuid.NewString(), map[string]string{"type": "other"})
	hub.Publish(reportID, map[string]string{"type": "comment_posted"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got map[string]string
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "comment_posted", got["type"])

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers(reportID) == 0 }, time.Second, 10*time.Millisecond)
}

func TestServeWsRejects(t *testing.T) {
	user := uuid.New()
	_, srv := newTestServer(t, user)
	reportID := uuid.NewString()

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"missing token", wsURL(srv, "", reportID), http.StatusUnauthorized},
		{"bad token", wsURL(srv, "garbage", reportID), http.StatusUnauthorized},
		{"bad report id", wsURL(srv, signToken(t, user), "nope"), http.StatusBadRequest},
		{"no access", wsURL(srv, signToken(t, uuid.New()), reportID), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(tt.url, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
