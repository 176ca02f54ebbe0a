// Package closer останавливает ресурсы приложения в порядке, обратном запуску.
package closer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront/pkg/logger"
)

const defaultForcedTimeout = 2 * time.Second

// Func — функция остановки ресурса.
type Func func(ctx context.Context) error

type resource struct {
	name string
	stop Func
}

// Closer хранит ресурсы в порядке регистрации и закрывает их LIFO.
// Если контекст истёк, оставшиеся ресурсы закрываются параллельно
// с отдельным таймаутом forcedTimeout.
type Closer struct {
	mu            sync.Mutex
	once          sync.Once
	resources     []resource
	forcedTimeout time.Duration
	logger        logger.Logger
}

func NewCloser(forcedTimeout time.Duration, logger logger.Logger) *Closer {
	if forcedTimeout <= 0 {
		forcedTimeout = defaultForcedTimeout
	}

	return &Closer{forcedTimeout: forcedTimeout, logger: logger}
}

// Add регистрирует ресурс. Имя попадает в лог и в текст ошибки.
func (c *Closer) Add(name string, f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources = append(c.resources, resource{name: name, stop: f})
}

// AddFunc регистрирует ресурс с методом остановки без контекста и ошибки.
func (c *Closer) AddFunc(name string, f func()) {
	c.Add(name, func(context.Context) error {
		f()
		return nil
	})
}

// Close закрывает ресурсы один раз. Повторные вызовы возвращают nil.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		resources := c.resources
		c.mu.Unlock()

		left, errs := c.closeInOrder(ctx, resources)
		if len(left) > 0 {
			c.logger.Warnf("shutdown deadline reached, forcing %d resource(s)", len(left))
			errs = append(errs, c.forceClose(left)...)
		}

		err = errors.Join(errs...)
	})

	return err
}

// closeInOrder возвращает ресурсы, до которых не дошла очередь к моменту отмены ctx.
func (c *Closer) closeInOrder(ctx context.Context, resources []resource) ([]resource, []error) {
	var errs []error
	for i := len(resources) - 1; i >= 0; i-- {
		res := resources[i]
		done := make(chan error, 1)
		go func() { done <- res.stop(ctx) }()

		select {
		case err := <-done:
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", res.name, err))
				c.logger.Warnf("%s stopped with error: %v", res.name, err)
				continue
			}
			c.logger.Infof("%s stopped", res.name)
		case <-ctx.Done():
			return resources[:i+1], errs
		}
	}

	return nil, errs
}

func (c *Closer) forceClose(resources []resource) []error {
	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, res := range resources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := res.stop(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s (forced): %w", res.name, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return errs
}
