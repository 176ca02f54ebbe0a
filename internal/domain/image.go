package domain

import (
	"fmt"
	"path"
	"strings"

	"github.com/DRSN-tech/storefront/pkg/e"
)

// ImageExtension возвращает расширение файла по MIME-типу изображения.
// Поддерживает jpeg, jpg, png, webp.
func ImageExtension(mime string) (string, error) {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	default:
		return "", e.Wrap(mime, e.ErrUnsupportedMediaType)
	}
}

// ImageObjectKey строит ключ объекта для изображения товара: products/<имя>-<id>.<ext>.
func ImageObjectKey(fileName, id, ext string) string {
	base := Slugify(strings.TrimSuffix(fileName, path.Ext(fileName)))
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("products/%s-%s.%s", base, id, ext)
}
