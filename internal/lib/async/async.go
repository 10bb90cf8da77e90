// Package async запускает обработку после того, как HTTP-ответ уже отправлен.
package async

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
)

// Dispatcher запускает задачу в фоне.
type Dispatcher interface {
	Go(name string, task func(ctx context.Context) error)
}

// Runner выполняет каждую задачу в своей горутине с ограничением по времени.
// Паника и ошибка задачи только логируются.
type Runner struct {
	timeout time.Duration
	log     *slog.Logger
	wg      sync.WaitGroup
}

// NewRunner создаёт Runner.
func NewRunner(timeout time.Duration, log *slog.Logger) *Runner {
	return &Runner{timeout: timeout, log: log}
}

// Go запускает задачу. Контекст задачи не зависит от HTTP-запроса.
func (r *Runner) Go(name string, task func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := Run(r.timeout, task); err != nil {
			r.log.Error("background task failed", slog.String("task", name), sl.Err(err))
		}
	}()
}

// Wait ждёт завершения запущенных задач или отмены ctx.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run выполняет задачу синхронно с таймаутом и превращает панику в ошибку.
func Run(timeout time.Duration, task func(ctx context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return task(ctx)
}

// Inline выполняет задачи сразу, в вызывающей горутине. Используется в тестах
// и утилитах, где фоновая обработка не нужна.
type Inline struct {
	Timeout time.Duration
	Log     *slog.Logger
}

// Go выполняет задачу синхронно.
func (i Inline) Go(name string, task func(ctx context.Context) error) {
	timeout := i.Timeout
	if timeout == 0 {
		timeout = time.Minute
	}
	if err := Run(timeout, task); err != nil && i.Log != nil {
		i.Log.Error("task failed", slog.String("task", name), sl.Err(err))
	}
}
