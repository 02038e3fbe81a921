// SPDX-License-Identifier: MIT

package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	ctx = ContextWithRequestID(ctx, "req-123")
	ctx = ContextWithJobID(ctx, "job-456")

	assert.Equal(t, "req-123", RequestIDFromContext(ctx))
	assert.Equal(t, "job-456", JobIDFromContext(ctx))
}

func TestContextMissingValues(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Empty(t, JobIDFromContext(context.Background()))
	assert.Empty(t, RequestIDFromContext(nil)) //nolint:staticcheck // nil-safety is part of the contract
}

func TestWithContextNoFields(t *testing.T) {
	// No correlation fields present: the logger is returned unchanged.
	base := Base()
	enriched := WithContext(context.Background(), base)
	assert.Equal(t, base, enriched)
}
