// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Typed configuration with snapshot reads and reload propagation.

package control

import (
	"reflect"
	"sync"

	"github.com/c2h5oh/datasize"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/momentics/hioload-stream/core/codec"
	"github.com/momentics/hioload-stream/pool"
)

// TagName is the struct tag used when decoding configuration.
const TagName = "config"

// Config is the full runtime configuration.
type Config struct {
	Pool      pool.Limits     `config:"pool"`
	Transport TransportConfig `config:"transport"`
	Codec     CodecConfig     `config:"codec"`
	Reactor   ReactorConfig   `config:"reactor"`
	Log       LogConfig       `config:"log"`
}

type TransportConfig struct {
	ReadSize  datasize.ByteSize `config:"read_size"`
	ReadBatch int               `config:"read_batch"`
	HighWater datasize.ByteSize `config:"high_water"`
}

type CodecConfig struct {
	OutputChunk datasize.ByteSize `config:"output_chunk"`
	// FlushThreshold is the chunked encoder threshold; -1 buffers until end.
	FlushThreshold int `config:"flush_threshold"`
	// Excess is "pipeline" or "reject".
	Excess string `config:"excess"`
}

type ReactorConfig struct {
	BatchSize int `config:"batch_size"`
	// CPU pins the reactor loop; -1 leaves it unpinned.
	CPU int `config:"cpu"`
}

type LogConfig struct {
	Level string `config:"level"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Pool: pool.DefaultLimits(),
		Transport: TransportConfig{
			ReadSize:  32 * datasize.KB,
			ReadBatch: 4,
			HighWater: 256 * datasize.KB,
		},
		Codec: CodecConfig{
			OutputChunk: 8 * datasize.KB,
			Excess:      codec.ExcessPipeline.String(),
		},
		Reactor: ReactorConfig{BatchSize: 64, CPU: -1},
		Log:     LogConfig{Level: "info"},
	}
}

// Validate checks the configuration for inconsistent values.
func (c Config) Validate() error {
	if err := c.Pool.Validate(); err != nil {
		return err
	}
	if _, err := c.Codec.ExcessPolicy(); err != nil {
		return err
	}
	if c.Transport.ReadBatch < 1 {
		return errors.Errorf("transport: read_batch must be positive, got %d", c.Transport.ReadBatch)
	}
	if c.Codec.FlushThreshold < codec.Unbounded {
		return errors.Errorf("codec: invalid flush_threshold %d", c.Codec.FlushThreshold)
	}
	return nil
}

// ExcessPolicy parses Excess.
func (c CodecConfig) ExcessPolicy() (codec.ExcessPolicy, error) {
	switch c.Excess {
	case "", codec.ExcessPipeline.String():
		return codec.ExcessPipeline, nil
	case codec.ExcessReject.String():
		return codec.ExcessReject, nil
	}
	return 0, errors.Errorf("codec: unknown excess policy %q", c.Excess)
}

// Decode decodes conf onto result without zeroing fields absent from conf.
func Decode(conf any, result *Config) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  StringToDataSizeHook,
		ErrorUnused: true,
		TagName:     TagName,
		Result:      result,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(decoder.Decode(conf))
}

// StringToDataSizeHook converts strings such as "64KB" to datasize.ByteSize.
func StringToDataSizeHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}
	if t != reflect.TypeOf(datasize.B) {
		return data, nil
	}
	var size datasize.ByteSize
	err := size.UnmarshalText([]byte(data.(string)))
	return size, err
}

// Load reads the file at path from fs on top of DefaultConfig. The format
// follows the file extension.
func Load(fs afero.Fs, path string) (Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	cfg := DefaultConfig()
	if err := Decode(v.AllSettings(), &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "decode config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrapf(err, "invalid config %s", path)
	}
	return cfg, nil
}

// ConfigStore holds the current Config and notifies listeners of changes.
type ConfigStore struct {
	mu        sync.RWMutex
	config    Config
	listeners []func(Config)
}

// NewConfigStore initializes a store with cfg.
func NewConfigStore(cfg Config) *ConfigStore {
	return &ConfigStore{config: cfg}
}

// GetSnapshot returns the current configuration.
func (cs *ConfigStore) GetSnapshot() Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.config
}

// SetConfig validates and installs cfg, then runs every listener with it.
func (cs *ConfigStore) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cs.mu.Lock()
	cs.config = cfg
	listeners := append([]func(Config){}, cs.listeners...)
	cs.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
	return nil
}

// Reload loads path from fs and installs the result.
func (cs *ConfigStore) Reload(fs afero.Fs, path string) error {
	cfg, err := Load(fs, path)
	if err != nil {
		return err
	}
	return cs.SetConfig(cfg)
}

// OnReload registers a listener called after every successful SetConfig.
func (cs *ConfigStore) OnReload(fn func(Config)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// BindPool applies the pool limits of the current and every later
// configuration to p.
func (cs *ConfigStore) BindPool(p *pool.Pool) {
	p.SetLimits(cs.GetSnapshot().Pool)
	cs.OnReload(func(cfg Config) { p.SetLimits(cfg.Pool) })
}
