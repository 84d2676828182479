// Package posters mirrors movie poster images into an S3-compatible object
// store so dashboards do not hotlink the external catalog's CDN.
package posters

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gravadigital/movienight-api/internal/config"
	"github.com/gravadigital/movienight-api/internal/logger"
)

// Mirror copies poster images into the configured bucket.
type Mirror struct {
	client *minio.Client
	bucket string
	http   *http.Client
	log    *charmlog.Logger
}

// NewMirror connects to the object store and ensures the poster bucket exists.
func NewMirror(ctx context.Context, cfg config.PostersConfig) (*Mirror, error) {
	log := logger.Get().WithPrefix("posters")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check poster bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create poster bucket: %w", err)
		}
		log.Info("Created poster bucket", "bucket", cfg.Bucket)
	}

	return &Mirror{
		client: client,
		bucket: cfg.Bucket,
		http:   &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}, nil
}

// Store downloads the poster at sourceURL and writes it to the bucket under
// the movie id. It returns the object key. Posters are immutable per movie,
// so an existing object is reused without re-downloading.
func (m *Mirror) Store(ctx context.Context, movieID, sourceURL string) (string, error) {
	if sourceURL == "" {
		return "", fmt.Errorf("movie %s has no poster url", movieID)
	}

	key := movieID + path.Ext(sourceURL)

	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err == nil {
		m.log.Debug("Poster already mirrored", "movie_id", movieID, "key", key)
		return key, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build poster request: %w", err)
	}

	resp, err := m.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download poster for movie %s: %w", movieID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("poster download for movie %s returned status %d", movieID, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	_, err = m.client.PutObject(ctx, m.bucket, key, resp.Body, resp.ContentLength, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store poster for movie %s: %w", movieID, err)
	}

	m.log.Info("Mirrored poster", "movie_id", movieID, "key", key)
	return key, nil
}
