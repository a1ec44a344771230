package pmsapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pms-rateops/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 5*time.Second, zap.NewNop()), srv
}

func TestListRoomTypes_ParsesContentEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/room-types", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "1000", r.URL.Query().Get("size"))
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"id":10,"code":"DLX","name":"Deluxe"},{"id":11,"code":"STD","name":"Standard"}]}`))
	})

	types, err := client.ListRoomTypes(context.Background(), 1, 1000)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "DLX", types[0].Code)
	assert.Equal(t, int64(11), types[1].ID)
}

func TestListRoomRates_SendsFilters(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "BAR", q.Get("ratePlanCode"))
		assert.Equal(t, "DLX", q.Get("roomTypeCode"))
		assert.Equal(t, "2024-06-01", q.Get("startDate"))
		assert.Equal(t, "2024-06-03", q.Get("endDate"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"id":5,"ratePlanCode":"BAR","roomTypeCode":"DLX","rateDate":"2024-06-01","rateAmount":100.0,"stopSell":false}]}`))
	})

	rates, err := client.ListRoomRates(context.Background(), RateFilter{
		RatePlanCode: "BAR",
		RoomTypeCode: "DLX",
		StartDate:    "2024-06-01",
		EndDate:      "2024-06-03",
	})
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.Equal(t, int64(5), rates[0].ID)
	assert.Equal(t, 100.0, rates[0].RateAmount)
	assert.Nil(t, rates[0].AvailabilityCount)
}

func TestListRoomRates_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := client.ListRoomRates(context.Background(), RateFilter{RatePlanCode: "BAR"})
	require.Error(t, err)
}

func TestCreateRoomRate_PostsBodyAndReturnsID(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var got domain.RoomRate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "BAR", got.RatePlanCode)
		assert.Equal(t, 120.0, got.RateAmount)

		got.ID = 99
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(got)
	})

	created, err := client.CreateRoomRate(context.Background(), domain.RoomRate{
		RatePlanCode: "BAR",
		RoomTypeCode: "DLX",
		RateDate:     "2024-06-02",
		RateAmount:   120,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(99), created.ID)
}

func TestUpdateRoomRate_PutsToIDPath(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	err := client.UpdateRoomRate(context.Background(), 42, domain.RoomRate{RateAmount: 111})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/room-rates/42", gotPath)
}

func TestUpdateRoomRate_RejectedByServer(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	err := client.UpdateRoomRate(context.Background(), 42, domain.RoomRate{RateAmount: -1})
	require.Error(t, err)
}
