package minio

import (
	"context"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// ImageRepo выдаёт подписанные ссылки для загрузки изображений товаров прямо в MinIO.
// Файл не проходит через сервер.
type ImageRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
	now func() time.Time
}

func NewImageRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ImageRepo {
	return &ImageRepo{
		mc:  mc,
		cfg: cfg,
		now: time.Now,
	}
}

// PresignUpload подписывает PUT на objectKey в бакете изображений.
func (i *ImageRepo) PresignUpload(ctx context.Context, objectKey string) (*usecase.PresignedUpload, error) {
	u, err := i.mc.PresignedPutObject(ctx, i.cfg.BucketName, objectKey, i.cfg.PresignExpiry)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &usecase.PresignedUpload{
		UploadURL: u.String(),
		ObjectKey: objectKey,
		PublicURL: PublicURL(i.cfg.PublicURL, objectKey),
		ExpiresAt: i.now().Add(i.cfg.PresignExpiry),
	}, nil
}

// PublicURL — адрес, по которому загруженный объект доступен покупателям.
func PublicURL(base, objectKey string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(objectKey, "/")
}
