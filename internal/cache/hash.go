// SPDX-License-Identifier: MIT

package cache

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// DigestFile streams the file through xxhash64 and returns the hex digest.
// The digest is the cache identity of a song: identical uploads and repeat
// downloads of the same video hash to the same analysis.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path) // #nosec G304 - path is a server-generated workdir file
	if err != nil {
		return "", fmt.Errorf("open for digest: %w", err)
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, bufio.NewReader(f)); err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// AnalysisKey builds the cache key for a song digest and BPM window. The
// window is part of the key because a different search range can produce a
// different grid for the same audio.
func AnalysisKey(digest string, minBPM, maxBPM float64) string {
	return fmt.Sprintf("beats:v1:%s:%g-%g", digest, minBPM, maxBPM)
}
