package show

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/pacelock/log"
	"github.com/mpapenbr/pacelock/pkg/cmd/util"
	"github.com/mpapenbr/pacelock/pkg/repository/api"
	"github.com/mpapenbr/pacelock/pkg/service/subsession"
	"github.com/mpapenbr/pacelock/pkg/summary"
)

func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <subsession-id>",
		Short: "prints the summary of a stored subsession",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid subsession id %q: %w", args[0], err)
			}
			return Run(cmd.Context(), cmd.OutOrStdout(), id)
		},
	}
}

// Run prints the summary of a stored subsession without contacting the API.
func Run(ctx context.Context, out io.Writer, id int64) error {
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
	sub, err := svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNoRows) {
			return fmt.Errorf("subsession %d is not stored", id)
		}
		return err
	}
	p := summary.NewPrinter(out)
	p.Banner()
	p.Subsession(sub)
	return nil
}
