package list

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/pacelock/log"
	"github.com/mpapenbr/pacelock/pkg/cmd/util"
	"github.com/mpapenbr/pacelock/pkg/service/subsession"
	"github.com/mpapenbr/pacelock/pkg/summary"
)

func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "lists the stored subsessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func Run(ctx context.Context, out io.Writer) error {
	logger := log.GetFromContext(ctx)
	backend, err := util.OpenBackend(ctx, logger)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer backend.Close()

	svc := subsession.NewService(
		subsession.WithRepositories(backend.Repos),
		subsession.WithLogger(logger.Named("subsession")),
	)
	items, err := svc.List(ctx)
	if err != nil {
		return err
	}
	summary.NewPrinter(out).List(items)
	return nil
}
