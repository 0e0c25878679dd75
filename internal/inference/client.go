// Package inference implements worker.AnalyserBackend as an HTTP client
// against an external model-serving process. The model itself (ASR,
// OCR, object/face detection) runs out-of-process; this client is only
// the wire-level call into it.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/AthbiHC/mobasher/internal/worker"
)

// Client calls out to a sidecar inference service over HTTP+JSON. One
// Client instance handles all four AnalyserBackend methods; the sidecar
// is expected to route by path (/asr/transcribe, /vision/ocr, ...).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a Client pointed at baseURL (e.g. http://localhost:8600).
// timeout bounds each individual inference call.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ worker.AnalyserBackend = (*Client)(nil)

// Ping checks that the sidecar is reachable and healthy, for operator
// CLI probes that shouldn't have to fabricate a real inference request.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health check request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("inference sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("inference sidecar unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

type transcribeRequest struct {
	AudioPath           string `json:"audio_path"`
	ModelName           string `json:"model_name"`
	Device              string `json:"device"`
	BeamSize            int    `json:"beam_size"`
	VADEnabled          bool   `json:"vad_enabled"`
	WordTimestamps      bool   `json:"word_timestamps"`
	ConditionOnPrevious bool   `json:"condition_on_previous"`
	InitialPrompt       string `json:"initial_prompt,omitempty"`
	Language            string `json:"language,omitempty"`
}

type transcribeResponse struct {
	Text         string              `json:"text"`
	Confidence   *float64            `json:"confidence"`
	ModelVersion string              `json:"model_version"`
	Words        []worker.WordTiming `json:"words"`
}

// Transcribe implements worker.AnalyserBackend.
func (c *Client) Transcribe(ctx context.Context, audioPath string, opts worker.ASROptions) (worker.ASRResult, error) {
	req := transcribeRequest{
		AudioPath:           audioPath,
		ModelName:           opts.ModelName,
		Device:              opts.Device,
		BeamSize:            opts.BeamSize,
		VADEnabled:          opts.VADEnabled,
		WordTimestamps:      opts.WordTimestamps,
		ConditionOnPrevious: opts.ConditionOnPrevious,
		InitialPrompt:       opts.InitialPrompt,
		Language:            opts.Language,
	}
	var resp transcribeResponse
	if err := c.post(ctx, "/asr/transcribe", req, &resp); err != nil {
		return worker.ASRResult{}, err
	}
	return worker.ASRResult{
		Text:         resp.Text,
		Confidence:   resp.Confidence,
		ModelVersion: resp.ModelVersion,
		Words:        resp.Words,
	}, nil
}

type detectTextRequest struct {
	VideoPath string `json:"video_path"`
	Timestamp float64 `json:"timestamp_sec"`
	Region    worker.Rect `json:"region"`
}

type detectTextResponse struct {
	Detections []worker.TextDetection `json:"detections"`
}

// DetectText implements worker.AnalyserBackend.
func (c *Client) DetectText(ctx context.Context, frame worker.Frame, region worker.Rect) ([]worker.TextDetection, error) {
	req := detectTextRequest{VideoPath: frame.VideoPath, Timestamp: frame.TimestampSec, Region: region}
	var resp detectTextResponse
	if err := c.post(ctx, "/vision/ocr", req, &resp); err != nil {
		return nil, err
	}
	return resp.Detections, nil
}

type detectFrameRequest struct {
	VideoPath string  `json:"video_path"`
	Timestamp float64 `json:"timestamp_sec"`
}

type detectFrameResponse struct {
	Detections []worker.Detection `json:"detections"`
}

// DetectObjects implements worker.AnalyserBackend.
func (c *Client) DetectObjects(ctx context.Context, frame worker.Frame) ([]worker.Detection, error) {
	req := detectFrameRequest{VideoPath: frame.VideoPath, Timestamp: frame.TimestampSec}
	var resp detectFrameResponse
	if err := c.post(ctx, "/vision/objects", req, &resp); err != nil {
		return nil, err
	}
	return resp.Detections, nil
}

// DetectFaces implements worker.AnalyserBackend.
func (c *Client) DetectFaces(ctx context.Context, frame worker.Frame) ([]worker.Detection, error) {
	req := detectFrameRequest{VideoPath: frame.VideoPath, Timestamp: frame.TimestampSec}
	var resp detectFrameResponse
	if err := c.post(ctx, "/vision/faces", req, &resp); err != nil {
		return nil, err
	}
	return resp.Detections, nil
}

type saveScreenshotRequest struct {
	VideoPath string  `json:"video_path"`
	Timestamp float64 `json:"timestamp_sec"`
	DestPath  string  `json:"dest_path"`
}

// SaveScreenshot implements worker.AnalyserBackend.
func (c *Client) SaveScreenshot(ctx context.Context, frame worker.Frame, destPath string) error {
	req := saveScreenshotRequest{VideoPath: frame.VideoPath, Timestamp: frame.TimestampSec, DestPath: destPath}
	return c.post(ctx, "/vision/screenshot", req, nil)
}

func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	buf, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal inference request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build inference request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("inference call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("inference call %s: status %d: %s", path, resp.StatusCode, body)
	}

	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decode inference response %s: %w", path, err)
	}
	return nil
}

// BaseURLFromEnv reads the inference sidecar URL from env, falling back
// to a local default for development.
func BaseURLFromEnv(envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return fallback
}
