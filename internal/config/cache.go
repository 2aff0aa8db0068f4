package config

import (
	"fmt"
	"sort"
	"time"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type ArchiveConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Backend string `mapstructure:"backend"`
	// CoalesceMisses collapses concurrent upstream fetches for the same URL.
	CoalesceMisses bool           `mapstructure:"coalesce_misses"`
	TTL            CacheTTLConfig `mapstructure:"ttl"`
	Redis          RedisConfig    `mapstructure:"redis"`
}

type CacheTTLConfig struct {
	Search  time.Duration `mapstructure:"search"`
	Page    time.Duration `mapstructure:"page"`
	Titles  time.Duration `mapstructure:"titles"`
	Default time.Duration `mapstructure:"default"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
