// SPDX-License-Identifier: MIT

package daemon

import (
	"net/http"

	"github.com/rs/zerolog"
)

// Deps contains the dependencies the daemon Manager serves and tears down.
type Deps struct {
	// Logger is the structured logger for the daemon.
	Logger zerolog.Logger

	// APIHandler is the HTTP handler for the API server.
	APIHandler http.Handler

	// MetricsAddr is the Prometheus listener address. Empty disables the
	// metrics server.
	MetricsAddr string

	// MetricsHandler serves /metrics when MetricsAddr is set.
	MetricsHandler http.Handler
}

// Validate checks that the required dependencies are present.
func (d *Deps) Validate() error {
	if d.Logger.GetLevel() == zerolog.Disabled {
		return ErrMissingLogger
	}
	if d.APIHandler == nil {
		return ErrMissingAPIHandler
	}
	return nil
}
