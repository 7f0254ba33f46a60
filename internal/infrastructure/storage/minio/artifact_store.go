package minio

import (
	"bytes"
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// ArtifactStore uploads finalised text files from the local dataset
// directory to the configured bucket.
type ArtifactStore struct {
	client *Client
	dir    string
	logger logging.Logger
}

// NewArtifactStore creates an uploader reading files from dir.
func NewArtifactStore(client *Client, dir string, log logging.Logger) (*ArtifactStore, error) {
	if client == nil {
		return nil, errors.InvalidParam("minio client must not be nil")
	}
	if dir == "" {
		return nil, errors.InvalidParam("dataset directory must not be empty")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ArtifactStore{
		client: client,
		dir:    dir,
		logger: log,
	}, nil
}

// UploadFinalisedFile copies one finalised file to the bucket. The object
// key is the file name under the configured prefix.
func (s *ArtifactStore) UploadFinalisedFile(ctx context.Context, name string) error {
	local := filepath.Join(s.dir, name)
	data, err := os.ReadFile(local)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageReadFailed, "failed to read finalised file").
			WithDetailf("path=%s", local)
	}

	key := s.objectKey(name)
	info, err := s.client.api.PutObject(ctx, s.client.config.Bucket, key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/plain; charset=utf-8"})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageUploadFailed, "failed to upload finalised file").
			WithDetailf("bucket=%s key=%s", s.client.config.Bucket, key)
	}

	s.logger.Debug("uploaded finalised file",
		logging.String("bucket", s.client.config.Bucket),
		logging.String("key", key),
		logging.Int64("size", info.Size),
	)
	return nil
}

func (s *ArtifactStore) objectKey(name string) string {
	if s.client.config.Prefix == "" {
		return name
	}
	return path.Join(s.client.config.Prefix, name)
}
