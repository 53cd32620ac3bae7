package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/yungbote/magix-backend/internal/platform/dbctx"
	"github.com/yungbote/magix-backend/internal/platform/gcp"
	"github.com/yungbote/magix-backend/internal/platform/logger"
)

type gcsStore struct {
	log    *logger.Logger
	bucket gcp.BucketService
}

func NewGCSStore(bucket gcp.BucketService, baseLog *logger.Logger) Store {
	return &gcsStore{
		log:    baseLog.With("store", "GCSBlobStore", "bucket", bucket.BucketName()),
		bucket: bucket,
	}
}

func (s *gcsStore) Get(ctx context.Context, owner, conversationID, doc string) ([]byte, error) {
	key := Key(owner, conversationID, doc)
	rc, err := s.bucket.DownloadFile(ctx, key)
	if err != nil {
		if errors.Is(err, gcp.ErrObjectNotFound) {
			return nil, nil
		}
		s.log.Error("blob read failed", "key", key, "error", err)
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *gcsStore) Put(ctx context.Context, owner, conversationID, doc string, data []byte) error {
	key := Key(owner, conversationID, doc)
	if err := s.bucket.UploadFile(dbctx.Context{Ctx: ctx}, key, "application/json", bytes.NewReader(data)); err != nil {
		s.log.Error("blob write failed", "key", key, "error", err)
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *gcsStore) ListConversationIDs(ctx context.Context, owner string) ([]string, error) {
	prefixes, err := s.bucket.ListPrefixes(ctx, ownerPrefix(owner), "/")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if id := conversationIDFromPrefix(p); id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}
