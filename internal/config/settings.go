package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/streamnode/streamnode/internal/pipeline"
	"github.com/streamnode/streamnode/internal/probe"
)

// StreamSettings is the operator's preferred stream shape. Zero fields
// mean "negotiate the best the device offers".
type StreamSettings struct {
	Device      string  `toml:"device" json:"device"`
	Width       uint32  `toml:"width,omitempty" json:"width,omitempty"`
	Height      uint32  `toml:"height,omitempty" json:"height,omitempty"`
	FPS         float64 `toml:"fps,omitempty" json:"fps,omitempty"`
	Format      string  `toml:"format,omitempty" json:"format,omitempty"`
	BitrateKbps int     `toml:"bitrate_kbps,omitempty" json:"bitrate_kbps,omitempty"`
}

// SinkSettings is the SRT ingest endpoint streams publish to.
type SinkSettings struct {
	Host       string `toml:"host" json:"host"`
	Port       int    `toml:"port" json:"port"`
	StreamName string `toml:"stream_name" json:"stream_name"`
}

// Settings is the persisted node settings file.
type Settings struct {
	Version   int            `toml:"version" json:"version"`
	Autostart bool           `toml:"autostart" json:"autostart"`
	Stream    StreamSettings `toml:"stream" json:"stream"`
	Sink      SinkSettings   `toml:"sink" json:"sink"`

	UpdatedAt time.Time `toml:"updated_at" json:"updated_at"`
}

// Request converts the settings into a pipeline request.
func (s Settings) Request() pipeline.Request {
	return pipeline.Request{
		DeviceRef:   s.Stream.Device,
		Width:       s.Stream.Width,
		Height:      s.Stream.Height,
		FPS:         s.Stream.FPS,
		Format:      probe.PixelFormat(s.Stream.Format),
		BitrateKbps: s.Stream.BitrateKbps,
		Sink: pipeline.Sink{
			Host:       s.Sink.Host,
			Port:       s.Sink.Port,
			StreamName: s.Sink.StreamName,
		},
	}
}

// SettingsStore persists Settings as TOML.
type SettingsStore struct {
	path string

	mu       sync.Mutex
	settings Settings
}

// NewSettingsStore creates a store backed by the given file.
func NewSettingsStore(path string) *SettingsStore {
	if path == "" {
		path = "streamnode.toml"
	}
	return &SettingsStore{
		path:     path,
		settings: Settings{Version: 1},
	}
}

// Path returns the backing file path, for the reload watcher.
func (s *SettingsStore) Path() string {
	return s.path
}

// Load reads the settings file. A missing file leaves the defaults.
func (s *SettingsStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := LoadSettings(s.path)
	if err != nil {
		return err
	}
	s.settings = settings
	return nil
}

// LoadSettings reads one settings file without a store, used by the
// reload watcher to always hand out fresh data.
func LoadSettings(path string) (Settings, error) {
	settings := Settings{Version: 1}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := toml.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("failed to parse settings: %w", err)
	}
	if settings.Version == 0 {
		settings.Version = 1
	}
	return settings, nil
}

// Get returns a copy of the current settings.
func (s *SettingsStore) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Update applies a mutation and persists the result.
func (s *SettingsStore) Update(mutate func(*Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	mutate(&next)
	next.UpdatedAt = time.Now().UTC()

	if err := s.saveLocked(next); err != nil {
		return err
	}
	s.settings = next
	return nil
}

func (s *SettingsStore) saveLocked(settings Settings) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
