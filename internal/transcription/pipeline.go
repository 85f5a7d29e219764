// Package transcription turns uploaded meeting audio into persisted
// transcript and summary records via an external speech service.
package transcription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meetpulse/backend/internal/artifact"
	"github.com/meetpulse/backend/internal/metrics"
	"github.com/meetpulse/backend/internal/storage"
)

// Client input errors; reported immediately, never retried.
var (
	// ErrEmptyAudio rejects uploads with no bytes.
	ErrEmptyAudio = errors.New("no audio data")

	// ErrAudioTooLarge rejects uploads over the configured cap.
	ErrAudioTooLarge = errors.New("audio file exceeds the upload limit")

	// ErrNotParticipant rejects record operations by identities that
	// are not participants of the record.
	ErrNotParticipant = errors.New("requester is not a participant of this record")
)

// Placeholder values substituted for absent results so records never
// carry empty transcript or summary fields.
const (
	PlaceholderTranscript = "Transcript not available."
	PlaceholderSummary    = "Summary not available."
)

// ProcessingError is the aggregated failure surfaced after the retry
// budget is exhausted.
type ProcessingError struct {
	Attempts int
	Err      error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("transcription failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Pipeline orchestrates one audio upload through durable local
// storage, the external speech service, and the persistence
// collaborator. It is stateless per invocation; concurrent requests
// run fully independently.
type Pipeline struct {
	service   SpeechService
	artifacts *artifact.Store
	store     storage.SummaryStore

	maxUploadBytes int64
	pollInterval   time.Duration
	retry          Schedule

	log     zerolog.Logger
	metrics *metrics.Metrics
}

// NewPipeline wires a Pipeline from its collaborators.
func NewPipeline(
	service SpeechService,
	artifacts *artifact.Store,
	store storage.SummaryStore,
	maxUploadBytes int64,
	pollInterval time.Duration,
	retry Schedule,
	log zerolog.Logger,
	m *metrics.Metrics,
) *Pipeline {
	return &Pipeline{
		service:        service,
		artifacts:      artifacts,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		pollInterval:   pollInterval,
		retry:          retry,
		log:            log.With().Str("component", "transcription").Logger(),
		metrics:        m,
	}
}

// MaxUploadBytes returns the configured audio size cap.
func (p *Pipeline) MaxUploadBytes() int64 {
	return p.maxUploadBytes
}

// ProcessAudio runs the full workflow for one recording: validate,
// persist the artifact locally, upload to the speech service, submit
// and poll the job with bounded retries, normalize the results, and
// persist a summary record. The local artifact survives transcription
// failure so no audio is silently lost.
func (p *Pipeline) ProcessAudio(ctx context.Context, audio []byte, roomID, requesterID string, extraParticipants []string) (*storage.Summary, error) {
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	if int64(len(audio)) > p.maxUploadBytes {
		return nil, fmt.Errorf("%w (%d bytes, limit %d)", ErrAudioTooLarge, len(audio), p.maxUploadBytes)
	}
	if roomID == "" {
		roomID = "unknown"
	}

	art, err := p.artifacts.Save(audio)
	if err != nil {
		return nil, fmt.Errorf("saving audio artifact: %w", err)
	}
	log := p.log.With().Str("artifact", art.Name).Str("room", roomID).Logger()

	// Upload is a single large transfer; a failure here is fatal to the
	// request rather than retried, leaving the retry decision (and its
	// duplicate-storage cost) to the caller.
	audioURL, err := p.service.Upload(ctx, audio)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("audio uploaded to speech service")

	result, err := p.transcribeWithRetry(ctx, audioURL, log)
	if err != nil {
		return nil, err
	}

	transcript := result.Text
	if transcript == "" {
		transcript = PlaceholderTranscript
	}
	summary := result.Summary
	if summary == "" {
		summary = PlaceholderSummary
	}

	rec := &storage.Summary{
		ID:           uuid.NewString(),
		RoomID:       roomID,
		Participants: dedupe(requesterID, extraParticipants),
		Transcript:   transcript,
		Summary:      summary,
		AudioURL:     art.URL,
		CreatedAt:    time.Now().UTC(),
	}
	if err := p.store.CreateSummary(ctx, rec); err != nil {
		return nil, fmt.Errorf("persisting summary record: %w", err)
	}

	log.Info().Str("record", rec.ID).Msg("summary record created")
	return rec, nil
}

// transcribeWithRetry runs the submit+poll cycle under the retry
// schedule, returning the completed job or the last error once the
// attempt budget is exhausted.
func (p *Pipeline) transcribeWithRetry(ctx context.Context, audioURL string, log zerolog.Logger) (*Job, error) {
	var lastErr error
	for attempt := 1; attempt <= p.retry.MaxAttempts; attempt++ {
		p.metrics.TranscriptionAttempts.Inc()

		job, err := p.transcribe(ctx, audioURL)
		if err == nil {
			return job, nil
		}
		lastErr = err
		p.metrics.TranscriptionFailures.Inc()
		log.Warn().Err(err).Int("attempt", attempt).Msg("transcription attempt failed")

		if attempt == p.retry.MaxAttempts {
			break
		}
		if err := sleep(ctx, p.retry.Delay(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, &ProcessingError{Attempts: p.retry.MaxAttempts, Err: lastErr}
}

// transcribe submits one job and polls it to a terminal state.
func (p *Pipeline) transcribe(ctx context.Context, audioURL string) (*Job, error) {
	job, err := p.service.Submit(ctx, audioURL)
	if err != nil {
		return nil, err
	}

	for !job.Terminal() {
		if err := sleep(ctx, p.pollInterval); err != nil {
			return nil, err
		}
		job, err = p.service.Poll(ctx, job.ID)
		if err != nil {
			return nil, err
		}
	}

	if job.Status != StatusCompleted {
		if job.Error != "" {
			return nil, fmt.Errorf("transcription job failed: %s", job.Error)
		}
		return nil, fmt.Errorf("transcription job ended in status %q", job.Status)
	}
	return job, nil
}

// DeleteRecord removes a summary record and its backing audio
// artifact. The requester must be among the record's participants;
// otherwise nothing is removed.
func (p *Pipeline) DeleteRecord(ctx context.Context, recordID, requesterID string) error {
	rec, err := p.store.GetSummary(ctx, recordID)
	if err != nil {
		return err
	}
	if !rec.HasParticipant(requesterID) {
		return ErrNotParticipant
	}

	if rec.AudioURL != "" {
		if err := p.artifacts.Delete(rec.AudioURL); err != nil {
			return err
		}
	}
	if err := p.store.DeleteSummary(ctx, recordID); err != nil {
		return err
	}

	p.log.Info().Str("record", recordID).Msg("summary record deleted")
	return nil
}

// dedupe builds the participant list: requester first, then extras in
// first-seen order with duplicates and blanks dropped.
func dedupe(requesterID string, extras []string) []string {
	seen := map[string]bool{requesterID: true}
	out := []string{requesterID}
	for _, id := range extras {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
