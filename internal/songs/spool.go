// SPDX-License-Identifier: MIT

package songs

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
)

// Spool writes r to a uniquely named file in workDir and returns its
// path. The write is atomic, so a partially received upload never leaves
// a readable file behind. The caller removes the file when done.
func Spool(workDir string, r io.Reader) (string, error) {
	path := filepath.Join(workDir, uuid.NewString()+".mp3")

	t, err := renameio.TempFile(workDir, path)
	if err != nil {
		return "", fmt.Errorf("spool upload: %w", err)
	}
	defer t.Cleanup() //nolint:errcheck

	if _, err := io.Copy(t, r); err != nil {
		return "", fmt.Errorf("spool upload: %w", err)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("spool upload: %w", err)
	}

	return path, nil
}
