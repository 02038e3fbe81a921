// SPDX-License-Identifier: MIT

package config

import "time"

// ServerConfig holds HTTP server timeouts and the shutdown budget.
type ServerConfig struct {
	ListenAddr        string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// ParseServerConfig reads server tuning from the environment.
// The write timeout is generous because processed songs are streamed back
// on the request connection.
func ParseServerConfig(listenAddr string) ServerConfig {
	return ServerConfig{
		ListenAddr:        listenAddr,
		ReadTimeout:       ParseDuration("BEATFUNC_READ_TIMEOUT", 2*time.Minute),
		ReadHeaderTimeout: ParseDuration("BEATFUNC_READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      ParseDuration("BEATFUNC_WRITE_TIMEOUT", 10*time.Minute),
		IdleTimeout:       ParseDuration("BEATFUNC_IDLE_TIMEOUT", 2*time.Minute),
		ShutdownTimeout:   ParseDuration("BEATFUNC_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}
