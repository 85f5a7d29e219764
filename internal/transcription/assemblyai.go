package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Job states reported by the speech service.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Job is the speech service's view of one transcription request.
type Job struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Text    string `json:"text"`
	Summary string `json:"summary"`
	Error   string `json:"error"`
}

// Terminal reports whether the job will make no further progress.
func (j *Job) Terminal() bool {
	return j.Status != StatusQueued && j.Status != StatusProcessing
}

// SpeechService is the contract the pipeline holds the external
// speech-processing service to.
type SpeechService interface {
	// Upload transfers raw audio bytes and returns an opaque reference
	// URL for them.
	Upload(ctx context.Context, audio []byte) (string, error)

	// Submit requests transcription plus summarization of previously
	// uploaded audio.
	Submit(ctx context.Context, audioURL string) (*Job, error)

	// Poll fetches the current state of a submitted job.
	Poll(ctx context.Context, jobID string) (*Job, error)
}

// summaryGuidance steers the service's summarization toward what a
// meeting summary should surface.
const summaryGuidance = "You are an AI meeting assistant. Summarize the meeting transcript, " +
	"highlighting key points, decisions, problems raised, and action items."

// submitRequest is the job submission payload.
type submitRequest struct {
	AudioURL      string `json:"audio_url"`
	Summarization bool   `json:"summarization"`
	SummaryModel  string `json:"summary_model"`
	SummaryType   string `json:"summary_type"`
	Prompt        string `json:"prompt,omitempty"`
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

// AssemblyAI talks to the AssemblyAI v2 REST API.
type AssemblyAI struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewAssemblyAI creates a client for the given API root (the production
// root is config.DefaultSpeechBaseURL).
func NewAssemblyAI(apiKey, baseURL string) *AssemblyAI {
	return &AssemblyAI{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// Upload posts raw audio bytes and returns the service's reference URL.
func (a *AssemblyAI) Upload(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/upload", bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var resp uploadResponse
	if err := a.do(req, &resp); err != nil {
		return "", fmt.Errorf("uploading audio: %w", err)
	}
	if resp.UploadURL == "" {
		return "", fmt.Errorf("upload response missing upload_url")
	}
	return resp.UploadURL, nil
}

// Submit requests an informative bullet summary alongside the
// transcript.
func (a *AssemblyAI) Submit(ctx context.Context, audioURL string) (*Job, error) {
	body, err := json.Marshal(submitRequest{
		AudioURL:      audioURL,
		Summarization: true,
		SummaryModel:  "informative",
		SummaryType:   "bullets",
		Prompt:        summaryGuidance,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var job Job
	if err := a.do(req, &job); err != nil {
		return nil, fmt.Errorf("submitting transcription job: %w", err)
	}
	return &job, nil
}

// Poll fetches the current state of a job.
func (a *AssemblyAI) Poll(ctx context.Context, jobID string) (*Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/transcript/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", a.apiKey)

	var job Job
	if err := a.do(req, &job); err != nil {
		return nil, fmt.Errorf("polling transcription job: %w", err)
	}
	return &job, nil
}

// do executes the request and decodes a JSON response, treating any
// non-2xx status as an error carrying the response body.
func (a *AssemblyAI) do(req *http.Request, out any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("speech service returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
