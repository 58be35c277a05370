package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"board-service/internal/geoip"
	"board-service/internal/middleware"
	"board-service/internal/mocks"
	"board-service/internal/models"
	"board-service/internal/telemetry"
)

func setupMessageRouter(handler *MessageHandler, debugRoutes bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/send-message", handler.SubmitMessage)
	r.GET("/stats", handler.Stats)
	RegisterDebugRoutes(r, handler, debugRoutes)
	return r
}

func newTestHandler() (*MessageHandler, *mocks.MessageRepositoryMock, *mocks.GeoClientMock, *mocks.PublisherMock) {
	repo := new(mocks.MessageRepositoryMock)
	geo := new(mocks.GeoClientMock)
	publisher := new(mocks.PublisherMock)
	emitter := telemetry.NewEventEmitter(publisher, "messages.created", "board-service", "test", zap.NewNop())
	handler := NewMessageHandler(repo, geo, emitter, zap.NewNop())
	return handler, repo, geo, publisher
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/send-message", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitMessageSuccess(t *testing.T) {
	handler, repo, geo, publisher := newTestHandler()
	router := setupMessageRouter(handler, false)

	geo.On("Lookup", mock.Anything, "192.0.2.1").Return(geoip.Location{
		Country: "Germany", City: "Berlin", Region: "Berlin", Timezone: "Europe/Berlin",
	}).Once()
	repo.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.Content == "hello board" &&
			m.IPAddress == "192.0.2.1" &&
			m.Location != nil && m.Location.Source == "browser" &&
			m.Location.FinalCity == "Berlin" &&
			m.DeviceInfo != nil
	})).Return(models.Message{ID: 7, Content: "hello board", IPAddress: "192.0.2.1"}, nil).Once()
	publisher.On("Publish", mock.Anything, "messages.created", mock.AnythingOfType("telemetry.EventEnvelope")).Return(nil).Once()

	rec := postJSON(router, `{"message":"hello board","browser_timezone":"Europe/Berlin"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, true, resp["success"])
	require.Equal(t, "Message submitted successfully", resp["message"])

	loc, ok := resp["location"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "Berlin", loc["city"])
	require.Equal(t, "Germany", loc["country"])
	require.Equal(t, "browser", loc["source"])

	dev, ok := resp["device"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "desktop", dev["type"])

	repo.AssertExpectations(t)
	geo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestSubmitMessageTrimsContent(t *testing.T) {
	handler, repo, geo, publisher := newTestHandler()
	router := setupMessageRouter(handler, false)

	geo.On("Lookup", mock.Anything, "192.0.2.1").Return(geoip.UnknownLocation).Once()
	repo.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.Content == "hello"
	})).Return(models.Message{ID: 1, Content: "hello"}, nil).Once()
	publisher.On("Publish", mock.Anything, "messages.created", mock.Anything).Return(nil).Once()

	rec := postJSON(router, `{"message":"  hello \n\t"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestSubmitMessageMissing(t *testing.T) {
	handler, repo, geo, _ := newTestHandler()
	router := setupMessageRouter(handler, false)

	rec := postJSON(router, `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, false, resp["success"])
	require.Equal(t, "Message cannot be empty", resp["error"])

	repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
	geo.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestSubmitMessageWhitespaceOnly(t *testing.T) {
	handler, repo, _, _ := newTestHandler()
	router := setupMessageRouter(handler, false)

	rec := postJSON(router, `{"message":"   \n\t  "}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "Message cannot be empty", resp["error"])

	repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestSubmitMessageTooLong(t *testing.T) {
	handler, repo, _, _ := newTestHandler()
	router := setupMessageRouter(handler, false)

	body, err := json.Marshal(map[string]string{"message": strings.Repeat("a", 1001)})
	require.NoError(t, err)

	rec := postJSON(router, string(body))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "Message too long (max 1000 characters)", resp["error"])

	repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestSubmitMessagePaddedOverLimitRejected(t *testing.T) {
	handler, repo, _, _ := newTestHandler()
	router := setupMessageRouter(handler, false)

	// 999 letters plus two spaces: 1001 characters before trimming.
	body, err := json.Marshal(map[string]string{"message": " " + strings.Repeat("a", 999) + " "})
	require.NoError(t, err)

	rec := postJSON(router, string(body))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestSubmitMessageLengthCountsRunes(t *testing.T) {
	handler, repo, geo, publisher := newTestHandler()
	router := setupMessageRouter(handler, false)

	geo.On("Lookup", mock.Anything, "192.0.2.1").Return(geoip.UnknownLocation).Once()
	repo.On("CreateMessage", mock.Anything, mock.Anything).Return(models.Message{ID: 2}, nil).Once()
	publisher.On("Publish", mock.Anything, "messages.created", mock.Anything).Return(nil).Once()

	// 1000 two-byte runes stay within the limit.
	body, err := json.Marshal(map[string]string{"message": strings.Repeat("é", 1000)})
	require.NoError(t, err)

	rec := postJSON(router, string(body))

	require.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestSubmitMessageMalformedBody(t *testing.T) {
	handler, repo, _, _ := newTestHandler()
	router := setupMessageRouter(handler, false)

	rec := postJSON(router, `{"message": `)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	repo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestSubmitMessageLookupFailureStillStores(t *testing.T) {
	handler, repo, geo, publisher := newTestHandler()
	router := setupMessageRouter(handler, false)

	geo.On("Lookup", mock.Anything, "192.0.2.1").Return(geoip.UnknownLocation).Once()
	repo.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.Location != nil && m.Location.Country == "Unknown" && m.Location.Source == "ip"
	})).Return(models.Message{ID: 3}, nil).Once()
	publisher.On("Publish", mock.Anything, "messages.created", mock.Anything).Return(nil).Once()

	rec := postJSON(router, `{"message":"still works"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	loc := resp["location"].(map[string]any)
	require.Equal(t, "Unknown", loc["city"])
	require.Equal(t, "ip", loc["source"])

	repo.AssertExpectations(t)
}

func TestSubmitMessageGPSWins(t *testing.T) {
	handler, repo, geo, publisher := newTestHandler()
	router := setupMessageRouter(handler, false)

	geo.On("Lookup", mock.Anything, "192.0.2.1").Return(geoip.Location{
		Country: "Germany", City: "Berlin", Region: "Berlin", Timezone: "Europe/Berlin",
	}).Once()
	repo.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.Location != nil &&
			m.Location.Source == "gps" &&
			m.Location.FinalCity == "GPS Location" &&
			m.Location.GPSLatitude != nil && *m.Location.GPSLatitude == 52.52
	})).Return(models.Message{ID: 4}, nil).Once()
	publisher.On("Publish", mock.Anything, "messages.created", mock.Anything).Return(nil).Once()

	rec := postJSON(router, `{"message":"from here","gps_latitude":52.52,"gps_longitude":13.405,"gps_accuracy":12.5,"browser_timezone":"Europe/Berlin"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	loc := resp["location"].(map[string]any)
	require.Equal(t, "GPS Location", loc["city"])
	require.Equal(t, "gps", loc["source"])

	repo.AssertExpectations(t)
}

func TestSubmitMessageUsesForwardedForHeader(t *testing.T) {
	handler, repo, geo, publisher := newTestHandler()
	router := setupMessageRouter(handler, false)

	geo.On("Lookup", mock.Anything, "203.0.113.7").Return(geoip.UnknownLocation).Once()
	repo.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.IPAddress == "203.0.113.7"
	})).Return(models.Message{ID: 5}, nil).Once()
	publisher.On("Publish", mock.Anything, "messages.created", mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/send-message", bytes.NewBufferString(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	geo.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestSubmitMessageClassifiesDevice(t *testing.T) {
	handler, repo, geo, publisher := newTestHandler()
	router := setupMessageRouter(handler, false)

	geo.On("Lookup", mock.Anything, "192.0.2.1").Return(geoip.UnknownLocation).Once()
	repo.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.DeviceInfo != nil &&
			m.DeviceInfo.OperatingSystem == "Android" &&
			m.DeviceInfo.OSVersion == "13" &&
			m.DeviceInfo.Browser == "Chrome" &&
			m.DeviceInfo.DeviceType == "mobile"
	})).Return(models.Message{ID: 6}, nil).Once()
	publisher.On("Publish", mock.Anything, "messages.created", mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/send-message",
		bytes.NewBufferString(`{"message":"hi","deviceInfo":{"isMobile":true,"platform":"Linux armv8l"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.43 Mobile Safari/537.36")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	dev := resp["device"].(map[string]any)
	require.Equal(t, "mobile", dev["type"])
	require.Equal(t, "Google", dev["brand"])
	require.Equal(t, "Android", dev["os"])

	repo.AssertExpectations(t)
}

func TestSubmitMessageStoreError(t *testing.T) {
	handler, repo, geo, publisher := newTestHandler()
	router := setupMessageRouter(handler, false)

	geo.On("Lookup", mock.Anything, "192.0.2.1").Return(geoip.UnknownLocation).Once()
	repo.On("CreateMessage", mock.Anything, mock.Anything).Return(models.Message{}, assert.AnError).Once()

	rec := postJSON(router, `{"message":"doomed"}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, false, resp["success"])
	require.Equal(t, "Failed to submit message", resp["error"])

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestStatsSuccess(t *testing.T) {
	handler, repo, _, _ := newTestHandler()
	router := setupMessageRouter(handler, false)

	repo.On("CountMessages", mock.Anything).Return(int64(12), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"totalMessages":12}`, rec.Body.String())
	repo.AssertExpectations(t)
}

func TestStatsRepoError(t *testing.T) {
	handler, repo, _, _ := newTestHandler()
	router := setupMessageRouter(handler, false)

	repo.On("CountMessages", mock.Anything).Return(int64(0), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	repo.AssertExpectations(t)
}

func TestListMessagesReturnsRawRecords(t *testing.T) {
	handler, repo, _, _ := newTestHandler()
	router := setupMessageRouter(handler, true)

	stored := []models.Message{
		{ID: 2, Content: "newest", IPAddress: "203.0.113.7", Location: &models.LocationInfo{FinalCity: "Berlin", Source: "ip"}},
		{ID: 1, Content: "older", IPAddress: "203.0.113.8"},
	}
	repo.On("ListRecent", mock.Anything, 50).Return(stored, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []models.Message
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	require.Equal(t, "newest", resp[0].Content)
	require.Equal(t, "203.0.113.7", resp[0].IPAddress)
	require.NotNil(t, resp[0].Location)

	repo.AssertExpectations(t)
}

func TestListMessagesRepoError(t *testing.T) {
	handler, repo, _, _ := newTestHandler()
	router := setupMessageRouter(handler, true)

	repo.On("ListRecent", mock.Anything, 50).Return(([]models.Message)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	repo.AssertExpectations(t)
}

func TestListMessagesDisabledByDefault(t *testing.T) {
	handler, repo, _, _ := newTestHandler()
	router := setupMessageRouter(handler, false)

	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertNotCalled(t, "ListRecent", mock.Anything, mock.Anything)
}
