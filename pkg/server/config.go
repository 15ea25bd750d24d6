package server

import "github.com/shapestone/shape-serve/pkg/http"

// Config controls the listener and per-connection buffering.
type Config struct {
	Addr           string      // bind address, host:port
	MaxConnections int         // concurrent connection cap; excess connections get a 503
	ReadBufferSize int         // per-read chunk size in bytes
	Limits         http.Limits // parse limits; zero fields fall back to the parser defaults
}

// DefaultConfig returns the defaults: localhost:8080, 1024 concurrent
// connections, 8 KiB reads.
func DefaultConfig() Config {
	return Config{
		Addr:           "127.0.0.1:8080",
		MaxConnections: 1024,
		ReadBufferSize: 8192,
	}
}

// withDefaults fills zero or negative fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = d.MaxConnections
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	return c
}
