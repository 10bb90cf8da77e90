// Package cli реализует funnelctl — консольную утилиту оператора:
// выпуск токена админ-API, диагностика платежей и пользователей.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/magabrotheeeer/subscription-bot/internal/config"
	"github.com/magabrotheeeer/subscription-bot/internal/services/admin"
)

// AdminService — операции диагностики, доступные из утилиты.
type AdminService interface {
	Payment(ctx context.Context, referenceID string) (*admin.PaymentView, error)
	User(ctx context.Context, identity string) (*admin.UserView, error)
	ResetQuota(ctx context.Context, identity string) (*admin.UserView, error)
}

// deps позволяет подменить загрузку конфига и подключение к хранилищу в тестах.
type deps struct {
	loadConfig func(path string) (*config.Config, error)
	connect    func(ctx context.Context, cfg *config.Config) (AdminService, func(), error)
}

type rootOptions struct {
	configPath string
	deps       deps
}

// NewRootCmd собирает дерево команд funnelctl.
func NewRootCmd() *cobra.Command {
	return newRootCmd(deps{
		loadConfig: config.Load,
		connect:    connectAdmin,
	})
}

func newRootCmd(d deps) *cobra.Command {
	opts := &rootOptions{deps: d}

	root := &cobra.Command{
		Use:           "funnelctl",
		Short:         "Operator tool for the subscription bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("CONFIG_PATH"),
		"Path to the YAML config (defaults to $CONFIG_PATH)")

	root.AddCommand(
		newTokenCmd(opts),
		newPaymentCmd(opts),
		newUserCmd(opts),
	)
	return root
}

func (o *rootOptions) config() (*config.Config, error) {
	if o.configPath == "" {
		return nil, fmt.Errorf("config path is not set: use --config or CONFIG_PATH")
	}
	return o.deps.loadConfig(o.configPath)
}

// withAdmin подключается к хранилищу, выполняет fn и освобождает ресурсы.
func (o *rootOptions) withAdmin(ctx context.Context, fn func(AdminService) error) error {
	cfg, err := o.config()
	if err != nil {
		return err
	}
	svc, closeFn, err := o.deps.connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
