package mediamtx

import (
	"context"
	"time"

	"github.com/streamnode/streamnode/internal/logging"
	"github.com/streamnode/streamnode/internal/systemd"
)

// ManagerConfig points the manager at the local MediaMTX install.
type ManagerConfig struct {
	ConfigPath string `toml:"config_path"`
	APIURL     string `toml:"api_url"`
	Unit       string `toml:"unit"`
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.ConfigPath == "" {
		c.ConfigPath = "/etc/mediamtx/mediamtx.yml"
	}
	if c.APIURL == "" {
		c.APIURL = "http://127.0.0.1:9997"
	}
	if c.Unit == "" {
		c.Unit = "mediamtx.service"
	}
	return c
}

// Manager keeps the media server ingest-ready. It satisfies the control
// façade's Publisher interface.
type Manager struct {
	cfg    ManagerConfig
	client *Client
	units  *systemd.UnitManager
	logger logging.Logger
}

// NewManager builds a manager. units may be nil when systemd is not
// available; config reconciliation then skips the restart.
func NewManager(cfg ManagerConfig, units *systemd.UnitManager, logger logging.Logger) *Manager {
	cfg = cfg.withDefaults()
	return &Manager{
		cfg:    cfg,
		client: NewClient(cfg.APIURL),
		units:  units,
		logger: logger,
	}
}

// EnsureReady makes sure the media server will accept the stream: the
// config carries SRT ingest, the unit runs, and the API answers.
func (m *Manager) EnsureReady(ctx context.Context, streamName string) error {
	cfg, err := LoadConfig(m.cfg.ConfigPath)
	if err != nil {
		return err
	}

	if cfg.EnsureIngest() {
		m.logger.Info("Reconciling media server config", "path", m.cfg.ConfigPath)
		if err := cfg.WriteFile(m.cfg.ConfigPath); err != nil {
			return err
		}
		if m.units != nil {
			if err := m.units.Restart(ctx, m.cfg.Unit); err != nil {
				return err
			}
			if err := m.units.WaitActive(ctx, m.cfg.Unit, 10*time.Second); err != nil {
				return err
			}
		}
	}

	if err := m.client.WaitAvailable(ctx, 5*time.Second); err != nil {
		return err
	}

	m.logger.Debug("Media server ready for ingest", "stream", streamName)
	return nil
}

// Client exposes the API client for status queries.
func (m *Manager) Client() *Client {
	return m.client
}
