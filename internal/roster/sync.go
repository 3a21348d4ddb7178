package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"conference-schedule-backend/config"
	"conference-schedule-backend/internal/model"
)

// Store is the persistence slice the sync service needs.
type Store interface {
	UpsertSubmissions(ctx context.Context, submissions []model.Submission) error
}

// APISubmission is one submission record from the upstream paper-management API.
type APISubmission struct {
	ID           string   `json:"id"`
	ConferenceID string   `json:"conferenceId"`
	Title        string   `json:"title"`
	Status       string   `json:"status"`
	AuthorID     string   `json:"authorId"`
	AuthorIDs    []string `json:"authorIds"`
}

// APIResponse is the upstream response envelope.
type APIResponse struct {
	Code  int             `json:"code"`
	Items []APISubmission `json:"items"`
}

// Service mirrors the upstream accepted-submission roster into the local
// submissions table on an interval.
type Service struct {
	cfg    config.RosterSyncConfig
	store  Store
	client *http.Client
}

// NewService creates a new roster sync service.
func NewService(cfg config.RosterSyncConfig, store Store) *Service {
	return &Service{
		cfg:   cfg,
		store: store,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Run starts the sync loop until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		log.Info().Msg("roster sync is disabled, not starting")
		return
	}
	log.Info().Str("url", s.cfg.URL).Dur("interval", s.cfg.Interval).Msg("starting roster sync service")

	if err := s.SyncOnce(ctx); err != nil {
		log.Error().Err(err).Msg("roster sync cycle failed")
	}

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("roster sync service shutting down")
			return
		case <-timer.C:
			if err := s.SyncOnce(ctx); err != nil {
				log.Error().Err(err).Msg("roster sync cycle failed")
			}
			timer.Reset(s.cfg.Interval)
		}
	}
}

// SyncOnce performs a single fetch-and-upsert round.
func (s *Service) SyncOnce(ctx context.Context) error {
	resp, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	if len(resp.Items) == 0 {
		log.Debug().Msg("roster sync cycle finished: no submissions returned")
		return nil
	}

	now := time.Now()
	submissions := make([]model.Submission, 0, len(resp.Items))
	for _, item := range resp.Items {
		authors := item.AuthorIDs
		if len(authors) == 0 && item.AuthorID != "" {
			authors = []string{item.AuthorID}
		}
		submissions = append(submissions, model.Submission{
			ID:           item.ID,
			ConferenceID: item.ConferenceID,
			Title:        item.Title,
			Status:       item.Status,
			AuthorIDs:    authors,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	if err := s.store.UpsertSubmissions(ctx, submissions); err != nil {
		return fmt.Errorf("failed to upsert submissions: %w", err)
	}
	log.Info().Int("submissions", len(submissions)).Msg("roster sync cycle finished")
	return nil
}

// fetch retrieves the roster from the upstream API.
func (s *Service) fetch(ctx context.Context) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.AuthToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal api response: %w", err)
	}
	if apiResp.Code != 0 {
		return nil, fmt.Errorf("API returned non-zero application code: %d", apiResp.Code)
	}
	return &apiResp, nil
}
