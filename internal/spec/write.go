// SPDX-License-Identifier: MIT

package spec

import (
	"context"
	"fmt"

	"github.com/google/renameio/v2"

	xglog "github.com/airrkit/airrspec/internal/log"
)

// WriteFile marshals the document and writes it to path atomically. The
// fsync-before-rename sequence means readers never observe a torn spec, even
// across a power failure.
func WriteFile(ctx context.Context, path string, doc *Document) error {
	logger := xglog.FromContext(ctx)

	data, err := doc.Marshal()
	if err != nil {
		return err
	}

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending spec file: %w", err)
	}
	defer func() {
		// Cleanup removes the temp file if it was never committed.
		if err := pending.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending spec file")
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write spec data: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace spec file: %w", err)
	}
	return nil
}
