package stubserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinelops/copilot/internal/api"
	"github.com/sentinelops/copilot/internal/logging"
)

func newStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(logging.NewNop()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestRequiresBearer(t *testing.T) {
	srv := newStub(t)

	resp, err := http.Get(srv.URL + "/data/folders")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body["error"])
}

func TestContractThroughClient(t *testing.T) {
	srv := newStub(t)
	ctx := context.Background()

	client := api.New(api.Config{BaseURL: srv.URL}, logging.NewNop())
	client.SetToken("dev-token")

	t.Run("folders", func(t *testing.T) {
		folder, err := client.CreateFolder(ctx, "cases")
		require.NoError(t, err)
		assert.NotEmpty(t, folder.ID)

		folders, err := client.ListFolders(ctx)
		require.NoError(t, err)
		require.Len(t, folders, 1)
		assert.Equal(t, "cases", folders[0].Name)
		assert.NotNil(t, folders[0].ChatIDs)
	})

	t.Run("blank folder name rejected", func(t *testing.T) {
		_, err := client.CreateFolder(ctx, "   ")
		var backendErr *api.BackendError
		require.ErrorAs(t, err, &backendErr)
		assert.Equal(t, http.StatusBadRequest, backendErr.Status)
	})

	t.Run("conversations", func(t *testing.T) {
		created, err := client.CreateConversation(ctx, "New conversation", "")
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.NotEmpty(t, created.UpdatedAt)

		records, err := client.ListConversations(ctx)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, created.ID, records[0].ID)
	})

	t.Run("chat turn", func(t *testing.T) {
		records, err := client.ListConversations(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, records)

		resp, err := client.Chat(ctx, api.ChatRequest{
			Messages:       []api.TurnMessage{{Role: "user", Content: "suspicious login from 10.0.0.5"}},
			ConversationID: records[0].ID,
		})
		require.NoError(t, err)
		require.NotNil(t, resp.Final)
		assert.Contains(t, resp.Final.Summary, "suspicious login")
		assert.Greater(t, resp.Final.RiskScore, 0.2)
		assert.NotEmpty(t, resp.Steps)
	})
}
