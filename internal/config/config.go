package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/user/agentdeck/internal/scoring"
	"github.com/user/agentdeck/internal/types"
)

type Config struct {
	DataDir       string `json:"data_dir"`
	LogLevel      string `json:"log_level"`
	MaxConcurrent int    `json:"max_concurrent"`
	HistorySize   int    `json:"history_size"`
	SeedPath      string `json:"seed_path"`
	HTTP          struct {
		Enabled bool   `json:"enabled"`
		Listen  string `json:"listen"`
	} `json:"http"`
	Metrics struct {
		URL             string `json:"url"`
		RefreshSchedule string `json:"refresh_schedule"`
	} `json:"metrics"`
	Supply struct {
		SweepInterval string `json:"sweep_interval"`
	} `json:"supply"`
	Agents struct {
		LatencyMS int `json:"latency_ms"`
	} `json:"agents"`
	Tasks struct {
		DrainSchedule   string `json:"drain_schedule"`
		DrainLimit      int    `json:"drain_limit"`
		CleanupSchedule string `json:"cleanup_schedule"`
		MaxAgeHours     int    `json:"max_age_hours"`
	} `json:"tasks"`
	SLA struct {
		FirstResponseMins int `json:"first_response_mins"`
		HighResolveMins   int `json:"high_resolve_mins"`
		MediumResolveMins int `json:"medium_resolve_mins"`
		LowResolveMins    int `json:"low_resolve_mins"`
	} `json:"sla"`
	Telegram struct {
		Token  string `json:"token"`
		ChatID int64  `json:"chat_id"`
	} `json:"telegram"`
}

// Default returns the configuration written on first run.
func Default() *Config {
	cfg := &Config{
		DataDir:       filepath.Join(os.Getenv("HOME"), ".agentdeck"),
		LogLevel:      "info",
		MaxConcurrent: 3,
		HistorySize:   100,
	}
	cfg.HTTP.Enabled = true
	cfg.HTTP.Listen = ":8080"
	cfg.Metrics.RefreshSchedule = "@every 5m"
	cfg.Supply.SweepInterval = "30s"
	cfg.Tasks.DrainSchedule = "@every 5s"
	cfg.Tasks.DrainLimit = 50
	cfg.Tasks.CleanupSchedule = "@hourly"
	cfg.Tasks.MaxAgeHours = 24

	sla := scoring.DefaultSLAPolicy()
	cfg.SLA.FirstResponseMins = sla.FirstResponseMins
	cfg.SLA.HighResolveMins = sla.ResolutionMinsByPriority[types.PriorityHigh]
	cfg.SLA.MediumResolveMins = sla.ResolutionMinsByPriority[types.PriorityMedium]
	cfg.SLA.LowResolveMins = sla.ResolutionMinsByPriority[types.PriorityLow]
	return cfg
}

func Load(path string) (*Config, error) {
	cfg := Default()

	// Load from file if exists, otherwise write defaults
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if os.IsNotExist(err) {
		if err := Save(path, cfg); err != nil {
			return nil, err
		}
	}

	// Override from env (highest precedence)
	if listen := os.Getenv("AGENTDECK_LISTEN"); listen != "" {
		cfg.HTTP.Listen = listen
	}
	if url := os.Getenv("AGENTDECK_METRICS_URL"); url != "" {
		cfg.Metrics.URL = url
	}
	if level := os.Getenv("AGENTDECK_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if tgToken := os.Getenv("TELEGRAM_BOT_TOKEN"); tgToken != "" {
		cfg.Telegram.Token = tgToken
	}
	if chat := os.Getenv("TELEGRAM_CHAT_ID"); chat != "" {
		if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}

	return cfg, nil
}

// SLAPolicy converts the sla section into a scoring policy. Zero fields keep
// their defaults.
func (c *Config) SLAPolicy() scoring.SLAPolicy {
	p := scoring.DefaultSLAPolicy()
	if c.SLA.FirstResponseMins > 0 {
		p.FirstResponseMins = c.SLA.FirstResponseMins
	}
	for prio, mins := range map[types.Priority]int{
		types.PriorityHigh:   c.SLA.HighResolveMins,
		types.PriorityMedium: c.SLA.MediumResolveMins,
		types.PriorityLow:    c.SLA.LowResolveMins,
	} {
		if mins > 0 {
			p.ResolutionMinsByPriority[prio] = mins
		}
	}
	return p
}

// SweepInterval parses supply.sweep_interval, falling back to 30s.
func (c *Config) SweepInterval() time.Duration {
	d, err := time.ParseDuration(c.Supply.SweepInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// AgentLatency is the simulated processing delay applied to every agent.
func (c *Config) AgentLatency() time.Duration {
	return time.Duration(c.Agents.LatencyMS) * time.Millisecond
}

func (c *Config) TaskMaxAge() time.Duration {
	if c.Tasks.MaxAgeHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Tasks.MaxAgeHours) * time.Hour
}

// Save writes cfg to path atomically, creating the parent directory.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data = append(data, '\n')
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// ToMap round-trips cfg through JSON so keys match the file layout.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListValues returns every config value keyed by its dotted path.
func ListValues(cfg *Config, mask bool) (map[string]any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	flat := Flatten(m)
	if mask {
		flat = MaskSecrets(flat)
	}
	return flat, nil
}

// GetValue loads the config at path and returns the value under key.
func GetValue(path, key string) (any, error) {
	if _, err := Load(path); err != nil {
		return nil, err
	}
	raw, err := readRaw(path)
	if err != nil {
		return nil, err
	}
	v, ok := Flatten(raw)[key]
	if !ok {
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
	return v, nil
}

// SetValue writes key into the config file at path. value is parsed as JSON
// when it can be (numbers, booleans) and stored as a string otherwise. Keys
// outside the Config struct are kept.
func SetValue(path, key, value string) error {
	raw, err := readRaw(path)
	if err != nil {
		return err
	}

	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		parsed = value
	}

	flat := Flatten(raw)
	flat[key] = parsed
	data, err := json.MarshalIndent(Unflatten(flat), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeAtomic(path, data)
}

func readRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}
