package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelops/copilot/internal/logging"
	"github.com/sentinelops/copilot/internal/types"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL}, logging.NewNop())
}

func TestBearerCredential(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]types.Folder{})
	}))
	client.SetToken("tok-123")

	_, err := client.ListFolders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestListConversations(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/conversations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]ConversationRecord{
			{ID: "c1", Title: "alpha", UpdatedAt: "2024-01-01"},
			{ID: "c2", Title: "beta"},
		})
	}))

	records, err := client.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c1", records[0].ID)
	assert.Equal(t, "2024-01-01", records[0].UpdatedAt)
}

func TestCreateFolder(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cases", body["name"])
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(types.Folder{ID: "f1", Name: "cases"})
	}))

	folder, err := client.CreateFolder(context.Background(), "cases")
	require.NoError(t, err)
	assert.Equal(t, "f1", folder.ID)
}

func TestErrorMapping(t *testing.T) {
	t.Run("401 is an auth error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "token expired"})
		}))

		_, err := client.ListFolders(context.Background())
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, http.StatusUnauthorized, authErr.Status)
		assert.Contains(t, authErr.Message, "token expired")
	})

	t.Run("500 is a backend error with parsed message", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "database down"})
		}))

		_, err := client.ListConversations(context.Background())
		var backendErr *BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, "database down", backendErr.Message)
	})

	t.Run("unparseable body falls back to status text", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("<html>gateway</html>"))
		}))

		_, err := client.ListFolders(context.Background())
		var backendErr *BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Contains(t, backendErr.Message, "502")
	})
}

func TestChat(t *testing.T) {
	t.Run("parses the structured decision", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/chat", r.URL.Path)
			var req ChatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "assist", req.Mode)
			assert.Equal(t, "conv-1", req.ConversationID)

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(ChatResponse{
				Final: &types.FinalDecision{Summary: "ok", RiskScore: 0.3},
				Steps: []types.AgentStep{{Agent: "triage", Confidence: 0.8}},
			})
		}))

		resp, err := client.Chat(context.Background(), ChatRequest{
			Messages:       []TurnMessage{{Role: types.RoleUser, Content: "hi"}},
			ConversationID: "conv-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Final.Summary)
		require.Len(t, resp.Steps, 1)
	})

	t.Run("backend failure becomes a chat turn error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"error": "agents offline"})
		}))

		_, err := client.Chat(context.Background(), ChatRequest{ConversationID: "conv-1"})
		var turnErr *ChatTurnError
		require.ErrorAs(t, err, &turnErr)
		assert.Contains(t, turnErr.Error(), "agents offline")
	})

	t.Run("rejected credential stays an auth error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "bad token"})
		}))

		_, err := client.Chat(context.Background(), ChatRequest{ConversationID: "conv-1"})
		assert.True(t, IsAuth(err))
	})
}
