package laps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/pacelock/log"
	"github.com/mpapenbr/pacelock/pkg/cmd/util"
	"github.com/mpapenbr/pacelock/pkg/iracing"
	"github.com/mpapenbr/pacelock/pkg/service/subsession"
	"github.com/mpapenbr/pacelock/pkg/summary"
)

type options struct {
	custID     int64
	simsession int
}

func NewLapsCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "laps <subsession-id>",
		Short: "loads the lap times of a subsession and stores them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid subsession id %q: %w", args[0], err)
			}
			return Run(cmd.Context(), cmd.OutOrStdout(), id, opts)
		},
	}
	cmd.Flags().Int64Var(&opts.custID,
		"cust-id",
		0,
		"load only the laps of this driver (0: all drivers)")
	cmd.Flags().IntVar(&opts.simsession,
		"simsession",
		0,
		"simsession number (0: race, -1: qualifying, -2: practice)")
	return cmd
}

// Run fetches the lap times from the API and replaces the stored laps of
// the subsession.
func Run(ctx context.Context, out io.Writer, id int64, opts options) error {
	logger := log.GetFromContext(ctx)
	p := summary.NewPrinter(out)

	backend, err := util.OpenBackend(ctx, logger)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer backend.Close()

	client, err := util.NewClient(logger)
	if err != nil {
		if errors.Is(err, iracing.ErrMissingCredentials) {
			util.PrintMissingCredentials(out)
		}
		return err
	}
	svc := subsession.NewService(
		subsession.WithSource(client),
		subsession.WithRepositories(backend.Repos),
		subsession.WithTxManager(backend.Tx),
		subsession.WithLogger(logger.Named("subsession")),
	)

	p.Println(fmt.Sprintf("Loading lap times for subsession %d...", id))
	laps, err := svc.IngestLaps(ctx, id, opts.simsession, opts.custID)
	if err != nil {
		if errors.Is(err, iracing.ErrLegacyAuthRefused) {
			util.PrintLegacyAuthRequired(out)
		}
		p.Println(fmt.Sprintf("ERROR: Failed to load lap time data: %v", err))
		return err
	}
	p.Laps(id, laps)
	return nil
}
