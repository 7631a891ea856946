package config

import (
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
	_ "time/tzdata"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// StoreConfig carries the pharmacy settings that may change while the
// server is running.
type StoreConfig struct {
	VATRate           float64 `mapstructure:"vatRate"`
	LowStockThreshold int     `mapstructure:"lowStockThreshold"`
	CurrencySymbol    string  `mapstructure:"currencySymbol"`
	Timezone          string  `mapstructure:"timezone"`
}

func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		VATRate:           0.12,
		LowStockThreshold: 100,
		CurrencySymbol:    "₱",
		Timezone:          "Asia/Manila",
	}
}

// VAT returns the configured rate as a decimal, e.g. 0.12.
func (c StoreConfig) VAT() decimal.Decimal {
	return decimal.NewFromFloat(c.VATRate)
}

// Location resolves the store timezone, falling back to UTC.
func (c StoreConfig) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

type StoreConfigHolder struct {
	current atomic.Value // holds StoreConfig
}

// NewStaticStoreConfigHolder returns a holder that never reloads.
func NewStaticStoreConfigHolder(cfg StoreConfig) *StoreConfigHolder {
	holder := &StoreConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewStoreConfigHolder() (*StoreConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("pos")
	v.SetConfigType("yml")
	if dir := strings.TrimSpace(os.Getenv("PHARMAPOS_CONFIG_DIR")); dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("/etc/pharmapos")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PHARMAPOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultStoreConfig()
	v.SetDefault("store.vatRate", defaults.VATRate)
	v.SetDefault("store.lowStockThreshold", defaults.LowStockThreshold)
	v.SetDefault("store.currencySymbol", defaults.CurrencySymbol)
	v.SetDefault("store.timezone", defaults.Timezone)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	cfg, err := unmarshalStoreConfig(v)
	if err != nil {
		return nil, err
	}
	if err := validateStoreConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticStoreConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := unmarshalStoreConfig(v)
		if err != nil {
			log.Printf("[store-config] reload failed: %v", err)
			return
		}
		if err := validateStoreConfig(updated); err != nil {
			log.Printf("[store-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[store-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *StoreConfigHolder) Get() StoreConfig {
	if h == nil {
		return DefaultStoreConfig()
	}
	return h.current.Load().(StoreConfig)
}

func unmarshalStoreConfig(v *viper.Viper) (StoreConfig, error) {
	var file struct {
		Store StoreConfig `mapstructure:"store"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return StoreConfig{}, err
	}
	return file.Store, nil
}

func validateStoreConfig(cfg StoreConfig) error {
	if cfg.VATRate < 0 || cfg.VATRate >= 1 {
		return errors.New("store.vatRate must be within [0, 1)")
	}
	if cfg.LowStockThreshold < 0 {
		return errors.New("store.lowStockThreshold cannot be negative")
	}
	if strings.TrimSpace(cfg.CurrencySymbol) == "" {
		return errors.New("store.currencySymbol cannot be empty")
	}
	return nil
}
