package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// modelResourceIDs maps the v1/v2 model-version selector to its Ark
// resource ID.
var modelResourceIDs = map[string]string{
	"v1": "volc.bigasr.sauc.duration",
	"v2": "volc.seedasr.sauc.duration",
}

// VolcBackend is the streaming websocket ASR backend used for Tier 1 and
// Tier 2: a single blocking Transcribe call over a websocket
// connect/handshake/segment-pacing exchange, suited to the pipeline's
// synchronous per-invocation model.
type VolcBackend struct {
	URL          string
	AppID        string
	Token        string
	ModelVersion string // "v1" or "v2", default "v2"
	SegmentMS    int
}

// NewVolcBackend builds a VolcBackend from explicit credentials (normally
// sourced from pkg/config).
func NewVolcBackend(url, appID, token string) *VolcBackend {
	return &VolcBackend{
		URL:          url,
		AppID:        appID,
		Token:        token,
		ModelVersion: "v2",
		SegmentMS:    200,
	}
}

func (b *VolcBackend) authHeader() http.Header {
	resourceID := modelResourceIDs[b.ModelVersion]
	if resourceID == "" {
		resourceID = modelResourceIDs["v2"]
	}
	h := http.Header{}
	h.Add("X-Api-Resource-Id", resourceID)
	h.Add("X-Api-Connect-Id", uuid.New().String())
	h.Add("X-Api-Access-Key", b.Token)
	h.Add("X-Api-App-Key", b.AppID)
	return h
}

type volcControlMessage struct {
	Type         string `json:"type"`
	LanguageHint string `json:"language,omitempty"`
	Mode         string `json:"mode,omitempty"`
}

type volcResultMessage struct {
	Text         string  `json:"text"`
	Language     string  `json:"language"`
	Confidence   float64 `json:"confidence"`
	NoSpeechProb float64 `json:"no_speech_prob"`
	Final        bool    `json:"final"`
}

// dialWithRetry connects with bounded exponential backoff over at most
// three attempts.
func (b *VolcBackend) dialWithRetry(ctx context.Context) (*websocket.Conn, error) {
	const maxRetries = 3
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.URL, b.authHeader())
		if err != nil {
			lastErr = fmt.Errorf("dial websocket: %w", err)
			continue
		}
		return conn, nil
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

// Transcribe streams audioPath to the ASR service and blocks until a final
// result (or the stream closes). The core always requests transcribe mode
// and passes opts.LanguageHint through unchanged.
func (b *VolcBackend) Transcribe(ctx context.Context, audioPath string, opts Options) (Result, error) {
	content, err := os.ReadFile(audioPath)
	if err != nil {
		return Result{}, fmt.Errorf("read audio file: %w", err)
	}

	conn, err := b.dialWithRetry(ctx)
	if err != nil {
		return Result{}, err
	}
	defer conn.Close()

	ctrl := volcControlMessage{Type: "start", LanguageHint: opts.LanguageHint, Mode: string(ModeTranscribe)}
	ctrlBytes, _ := json.Marshal(ctrl)
	if err := conn.WriteMessage(websocket.TextMessage, ctrlBytes); err != nil {
		return Result{}, fmt.Errorf("send control message: %w", err)
	}

	segmentSize := len(content)/10 + 1
	ticker := time.NewTicker(time.Duration(b.SegmentMS) * time.Millisecond)
	defer ticker.Stop()

	for start := 0; start < len(content); start += segmentSize {
		end := start + segmentSize
		if end > len(content) {
			end = len(content)
		}
		select {
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.BinaryMessage, content[start:end]); err != nil {
				return Result{}, fmt.Errorf("send audio segment: %w", err)
			}
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"end"}`)); err != nil {
		return Result{}, fmt.Errorf("send end-of-stream: %w", err)
	}

	var last volcResultMessage
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var res volcResultMessage
		if jsonErr := json.Unmarshal(msg, &res); jsonErr != nil {
			continue
		}
		last = res
		if res.Final {
			break
		}
	}

	audioSeconds := float64(len(content)) / float64(16000*2)
	return Result{
		Text:         last.Text,
		Language:     last.Language,
		Confidence:   last.Confidence,
		NoSpeechProb: last.NoSpeechProb,
		AudioSeconds: audioSeconds,
	}, nil
}
