package roster

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conference-schedule-backend/config"
	"conference-schedule-backend/internal/model"
)

type fakeSubmissionStore struct {
	upserts [][]model.Submission
	err     error
}

func (f *fakeSubmissionStore) UpsertSubmissions(ctx context.Context, submissions []model.Submission) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, submissions)
	return nil
}

func rosterServer(t *testing.T, status int, resp APIResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestSyncOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts the upstream roster", func(t *testing.T) {
		server := rosterServer(t, http.StatusOK, APIResponse{
			Code: 0,
			Items: []APISubmission{
				{ID: "P1", ConferenceID: "conf-1", Title: "Paper One", Status: "accepted", AuthorIDs: []string{"a1", "a2"}},
				{ID: "P2", ConferenceID: "conf-1", Title: "Paper Two", Status: "rejected", AuthorID: "a3"},
			},
		})
		defer server.Close()

		fs := &fakeSubmissionStore{}
		svc := NewService(config.RosterSyncConfig{URL: server.URL}, fs)

		require.NoError(t, svc.SyncOnce(ctx))
		require.Len(t, fs.upserts, 1)
		require.Len(t, fs.upserts[0], 2)

		assert.Equal(t, []string{"a1", "a2"}, fs.upserts[0][0].AuthorIDs)
		// Legacy single authorId is promoted to a list.
		assert.Equal(t, []string{"a3"}, fs.upserts[0][1].AuthorIDs)
		assert.Equal(t, "rejected", fs.upserts[0][1].Status)
	})

	t.Run("sends the configured bearer token", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewEncoder(w).Encode(APIResponse{Code: 0}))
		}))
		defer server.Close()

		svc := NewService(config.RosterSyncConfig{URL: server.URL, AuthToken: "tok"}, &fakeSubmissionStore{})
		require.NoError(t, svc.SyncOnce(ctx))
		assert.Equal(t, "Bearer tok", gotAuth)
	})

	t.Run("empty roster skips the upsert", func(t *testing.T) {
		server := rosterServer(t, http.StatusOK, APIResponse{Code: 0})
		defer server.Close()

		fs := &fakeSubmissionStore{}
		svc := NewService(config.RosterSyncConfig{URL: server.URL}, fs)

		require.NoError(t, svc.SyncOnce(ctx))
		assert.Empty(t, fs.upserts)
	})

	t.Run("non-200 status is an error", func(t *testing.T) {
		server := rosterServer(t, http.StatusBadGateway, APIResponse{})
		defer server.Close()

		svc := NewService(config.RosterSyncConfig{URL: server.URL}, &fakeSubmissionStore{})
		err := svc.SyncOnce(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-200")
	})

	t.Run("non-zero application code is an error", func(t *testing.T) {
		server := rosterServer(t, http.StatusOK, APIResponse{Code: 42})
		defer server.Close()

		svc := NewService(config.RosterSyncConfig{URL: server.URL}, &fakeSubmissionStore{})
		err := svc.SyncOnce(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-zero")
	})

	t.Run("store failure propagates", func(t *testing.T) {
		server := rosterServer(t, http.StatusOK, APIResponse{
			Code:  0,
			Items: []APISubmission{{ID: "P1", ConferenceID: "conf-1", Status: "accepted"}},
		})
		defer server.Close()

		fs := &fakeSubmissionStore{err: errors.New("db down")}
		svc := NewService(config.RosterSyncConfig{URL: server.URL}, fs)
		assert.Error(t, svc.SyncOnce(ctx))
	})
}
