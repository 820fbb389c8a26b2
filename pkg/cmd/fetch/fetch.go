package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/pacelock/log"
	"github.com/mpapenbr/pacelock/pkg/cmd/util"
	"github.com/mpapenbr/pacelock/pkg/config"
	"github.com/mpapenbr/pacelock/pkg/iracing"
	"github.com/mpapenbr/pacelock/pkg/service/subsession"
	"github.com/mpapenbr/pacelock/pkg/summary"
)

var subsessionID int64

func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "fetches a subsession result, stores it and prints a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), cmd.OutOrStdout(), subsessionID)
		},
	}
	cmd.Flags().Int64Var(&subsessionID,
		"subsession-id",
		config.DefaultSubsession,
		"id of the subsession to fetch")
	return cmd
}

// Run loads the subsession id from the iRacing API, stores it in the
// configured database and prints the summary to out.
func Run(ctx context.Context, out io.Writer, id int64) error {
	logger := log.GetFromContext(ctx)
	p := summary.NewPrinter(out)
	p.Banner()

	p.Println("Initializing database...")
	backend, err := util.OpenBackend(ctx, logger)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer backend.Close()

	p.Println("Connecting to iRacing API...")
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

	p.Println(fmt.Sprintf("Loading subsession %d...", id))
	sub, err := svc.Load(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, iracing.ErrLegacyAuthRefused):
			util.PrintLegacyAuthRequired(out)
		case errors.Is(err, iracing.ErrNoData):
			p.Println(fmt.Sprintf("ERROR: No data returned for subsession %d", id))
		default:
			p.Println(fmt.Sprintf("ERROR: Failed to load subsession data: %v", err))
		}
		p.Println("Failed to load subsession data. Exiting.")
		return err
	}
	p.Loaded(sub)

	if err := svc.Store(ctx, sub); err != nil {
		p.Warning("Failed to store data in database")
	} else {
		p.Success("Data stored in database")
	}
	p.Subsession(sub)

	if err := backend.Close(); err != nil {
		log.Warn("could not close database", log.ErrorField(err))
	}
	p.Println("")
	p.Success("Process completed successfully")
	return nil
}
