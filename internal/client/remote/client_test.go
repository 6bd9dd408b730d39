package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/client/models"
	"github.com/dmitrijs2005/bizkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_StoresTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/users/login", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req["username"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"user_id":       "u1",
			"access_token":  "acc",
			"refresh_token": "ref",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()

	userID, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	access, refresh := c.Tokens()
	assert.Equal(t, "acc", access)
	assert.Equal(t, "ref", refresh)
}

func TestUpload_SendsBearerAndReturnsServerTime(t *testing.T) {
	serverTime := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/collections/projects/records/p1", r.URL.Path)
		require.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer acc", r.Header.Get("Authorization"))

		var req struct {
			Payload json.RawMessage `json:"payload"`
			Deleted bool            `json:"deleted"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.JSONEq(t, `{"name":"alpha"}`, string(req.Payload))

		_ = json.NewEncoder(w).Encode(map[string]any{"server_timestamp": serverTime})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()
	c.SetTokens("acc", "ref")

	rec := &models.Record{ID: "p1", Payload: []byte(`{"name":"alpha"}`)}
	got, err := c.Upload(context.Background(), models.CollectionProjects, rec)
	require.NoError(t, err)
	assert.True(t, got.Equal(serverTime))
}

func TestGetDocument_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()
	c.SetTokens("acc", "ref")

	_, err := c.GetDocument(context.Background(), models.CollectionSettings)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDoJSON_RefreshesExpiredTokenOnce(t *testing.T) {
	var listCalls, refreshCalls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/api/collections/projects/records", func(w http.ResponseWriter, r *http.Request) {
		if listCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "token expired"})
			return
		}
		assert.Equal(t, "Bearer acc2", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{"records": []any{}})
	})
	mux.HandleFunc("/api/users/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ref1", req["refresh_token"])

		_ = json.NewEncoder(w).Encode(map[string]string{
			"user_id":       "u1",
			"access_token":  "acc2",
			"refresh_token": "ref2",
		})
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()
	c.SetTokens("acc1", "ref1")

	_, err := c.ListAll(context.Background(), models.CollectionProjects)
	require.NoError(t, err)

	assert.Equal(t, int32(2), listCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())

	access, refresh := c.Tokens()
	assert.Equal(t, "acc2", access)
	assert.Equal(t, "ref2", refresh)
}

func TestDoJSON_InvalidTokenIsUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()
	c.SetTokens("bad", "")

	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestWithRetry_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"records": []any{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	defer c.Close()
	c.SetTokens("acc", "ref")

	_, err := c.ListAll(context.Background(), models.CollectionProjects)
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPing_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	defer c.Close()

	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
