package services

import (
	"context"
	"fmt"

	"github.com/eventara/certgen/internal/common"
	"github.com/eventara/certgen/internal/logging"
	"github.com/eventara/certgen/internal/server/models"
	"github.com/eventara/certgen/internal/storage"
)

// storeFor maps a storage tier onto the backend serving it.
func storeFor(blob, local storage.ObjectStore, tier models.StorageTier) storage.ObjectStore {
	if tier == models.TierLocal {
		return local
	}
	return blob
}

// putWithFallback writes to the blob tier first and falls back to local
// storage when the blob backend is unavailable. The returned name is the
// one the bytes were actually stored under and must be persisted as the
// record locator together with the tier.
func putWithFallback(ctx context.Context, blob, local storage.ObjectStore, log logging.Logger,
	name string, data []byte, meta storage.Metadata) (string, models.StorageTier, error) {

	stored, blobErr := blob.Put(ctx, name, data, meta)
	if blobErr == nil {
		return stored, models.TierBlob, nil
	}
	log.Warn(ctx, "blob put failed, falling back to local storage", "object", name, "error", blobErr)

	stored, localErr := local.Put(ctx, name, data, meta)
	if localErr == nil {
		return stored, models.TierLocal, nil
	}

	return "", "", fmt.Errorf("%w: blob: %v; local: %v", common.ErrUploadPersistenceFailed, blobErr, localErr)
}
