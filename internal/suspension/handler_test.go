package suspension

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapmanager/zapmanager/internal/domain"
)

func newTestServer(t *testing.T, service *Service) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	NewHandler(service).RegisterRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func TestHandler_BlockUnblockRoundTrip(t *testing.T) {
	store := newMockResourceStore(
		domain.AutomationResource{ID: "bot-1", UserID: "u1", Type: domain.ResourceTypeChatbot, Status: domain.ResourceStatusActive},
	)
	accounts := newMockAccountRepo()
	server := newTestServer(t, NewService(accounts, NewLedger(store, store)))

	resp, err := http.Post(server.URL+"/admin/users/u1/block", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.ResourceStatusPaused, store.status("bot-1"))

	resp, err = http.Post(server.URL+"/admin/users/u1/unblock", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.ResourceStatusActive, store.status("bot-1"))
}

func TestHandler_BlockConflictWhenAlreadyBlocked(t *testing.T) {
	store := newMockResourceStore()
	accounts := newMockAccountRepo("u1")
	server := newTestServer(t, NewService(accounts, NewLedger(store, store)))

	resp, err := http.Post(server.URL+"/admin/users/u1/block", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHandler_UnblockConflictWhenNotBlocked(t *testing.T) {
	store := newMockResourceStore()
	accounts := newMockAccountRepo()
	server := newTestServer(t, NewService(accounts, NewLedger(store, store)))

	resp, err := http.Post(server.URL+"/admin/users/u1/unblock", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
