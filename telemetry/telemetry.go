// Package telemetry records what the recents model and its settings relay do:
// OpenTelemetry spans for relay fan-out and bus hand-off, and a journal of
// discrete events that can be shipped to a file or an HTTP collector.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"
)

// Journal records discrete events.
type Journal interface {
	// Record appends an event with the given name and data.
	Record(name string, data map[string]interface{})
	// Flush sends any buffered events.
	Flush() error
	// Close flushes and releases the journal.
	Close() error
}

// Event is one journal entry.
type Event struct {
	Name      string                 `json:"name"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewJournal creates a journal for protocol "http" (endpoint is a URL),
// "file" (endpoint is a path) or "noop".
func NewJournal(protocol, endpoint string) (Journal, error) {
	switch protocol {
	case "http":
		return NewHTTPJournal(endpoint), nil
	case "file":
		return NewFileJournal(endpoint)
	case "noop", "":
		return NoopJournal{}, nil
	default:
		return nil, fmt.Errorf("unknown journal protocol: %s", protocol)
	}
}

// --- HTTP Journal ---

// httpBatchSize is the number of buffered events that triggers a flush.
const httpBatchSize = 100

// HTTPJournal posts batches of events as a JSON array.
type HTTPJournal struct {
	endpoint string
	client   *http.Client
	buffer   []Event
	mu       sync.Mutex
}

// NewHTTPJournal creates a journal posting to endpoint.
func NewHTTPJournal(endpoint string) *HTTPJournal {
	return &HTTPJournal{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		buffer: make([]Event, 0, httpBatchSize),
	}
}

func (j *HTTPJournal) Record(name string, data map[string]interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.buffer = append(j.buffer, Event{Name: name, Timestamp: time.Now(), Data: data})
	if len(j.buffer) >= httpBatchSize {
		j.flush()
	}
}

func (j *HTTPJournal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.flush()
}

func (j *HTTPJournal) flush() error {
	if len(j.buffer) == 0 {
		return nil
	}

	data, err := json.Marshal(j.buffer)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("journal endpoint returned %d", resp.StatusCode)
	}

	j.buffer = j.buffer[:0]
	return nil
}

func (j *HTTPJournal) Close() error {
	return j.Flush()
}

// --- File Journal ---

// FileJournal appends events as JSON lines.
type FileJournal struct {
	file *os.File
	mu   sync.Mutex
}

// NewFileJournal opens path for appending.
func NewFileJournal(path string) (*FileJournal, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	return &FileJournal{file: file}, nil
}

func (j *FileJournal) Record(name string, data map[string]interface{}) {
	line, err := json.Marshal(Event{Name: name, Timestamp: time.Now(), Data: data})
	if err != nil {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.file.Write(append(line, '\n'))
}

func (j *FileJournal) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Sync()
}

func (j *FileJournal) Close() error {
	j.Flush()
	return j.file.Close()
}

// --- Noop Journal ---

// NoopJournal discards all events.
type NoopJournal struct{}

func (NoopJournal) Record(string, map[string]interface{}) {}
func (NoopJournal) Flush() error                          { return nil }
func (NoopJournal) Close() error                          { return nil }
