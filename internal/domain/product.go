package domain

import (
	"strconv"
	"strings"
	"time"
)

// Product описывает товар каталога. Цена хранится в минорных единицах (пайсах).
type Product struct {
	ID          int64
	Slug        string
	Name        string
	Description string
	Price       int64
	ImageURL    string
	Stock       int
	IsActive    bool
	CreatedAt   time.Time
}

func NewProduct(name, description string, price int64, stock int, imageURL string, isActive bool) *Product {
	return &Product{
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		ImageURL:    imageURL,
		IsActive:    isActive,
	}
}

// Slugify приводит название к виду lower-case, заменяя всё, кроме a-z и 0-9, на дефис.
// Дефисы по краям обрезаются.
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	return b.String()
}

// SlugCandidate возвращает base для attempt=0 и base-N для последующих попыток.
func SlugCandidate(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(attempt)
}
