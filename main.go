package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rm-hull/border-filters/cmd"
	"github.com/rm-hull/border-filters/internal"
	"github.com/rm-hull/border-filters/internal/device"
	"github.com/spf13/cobra"
)

func main() {
	var rootPath string
	var port int
	var debug bool
	var schedule string
	var verbose bool

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	opts := cmd.DefaultFilterOptions()

	rootCmd := &cobra.Command{
		Use:           "border-filters",
		Long:          `Box and Gaussian image filters with replicated borders`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			device.SetLogger(device.NewLogger(os.Stderr, verbose))
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", internal.EnvBool("FILTER_DEBUG", false), "Log device allocations and kernel launches [FILTER_DEBUG]")

	filterCmd := &cobra.Command{
		Use:   "filter <input> [--filter box|gauss] [--mask-size <n>] [--anchor <n>] [--src-offset <n>]",
		Short: "Filter an image, or every image in a directory when the input ends in '*'",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Filter(c.Context(), args[0], opts)
		},
	}

	filterCmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file (default <dir>/<filterName>/<base>_<filterName><ext>, ignored for '*')")
	filterCmd.Flags().BoolVar(&opts.KeepGoing, "keep-going", false, "Carry on past files that fail and report them all at the end")

	watchCmd := &cobra.Command{
		Use:   "watch <dir> [--schedule <cron>]",
		Short: "Filter new images in a directory on a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.Watch(c.Context(), args[0], schedule, opts)
		},
	}

	watchCmd.Flags().StringVar(&schedule, "schedule", cmd.DefaultSchedule, "Cron schedule to scan the directory on")

	apiServerCmd := &cobra.Command{
		Use:   "api-server [--root <path>] [--port <port>] [--debug]",
		Short: "Start HTTP API server",
		Run: func(_ *cobra.Command, _ []string) {
			cmd.ApiServer(rootPath, port, debug, opts)
		},
	}

	apiServerCmd.Flags().StringVar(&rootPath, "root", "./data/results", "Path to root folder for filtered images")
	apiServerCmd.Flags().IntVar(&port, "port", 8080, "Port to run HTTP server on")
	apiServerCmd.Flags().BoolVar(&debug, "debug", false, "Enable debugging (pprof) - WARING: do not enable in production")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version, engine and codec information",
		RunE: func(_ *cobra.Command, _ []string) error {
			processor, err := opts.NewProcessor()
			if err != nil {
				return err
			}
			log.Printf("Filter: %s", processor.Config())
			return nil
		},
	}

	for _, c := range []*cobra.Command{filterCmd, watchCmd, apiServerCmd, versionCmd} {
		flags := c.Flags()
		flags.StringVar(&opts.Filter, "filter", opts.Filter, "Filter type: box (1) or gauss (2)")
		flags.IntVar(&opts.MaskSize, "mask-size", opts.MaskSize, "Box mask side, or Gaussian mask ordinal 0-10")
		flags.IntVar(&opts.Anchor, "anchor", opts.Anchor, "Box anchor (default mask-size/2)")
		flags.IntVar(&opts.SrcOffset, "src-offset", opts.SrcOffset, "Source sampling offset")
		flags.StringVar(&opts.Engine, "engine", opts.Engine, "Convolution engine: native or bild [FILTER_ENGINE]")
		if c != versionCmd {
			flags.StringVar(&opts.RecordLog, "record-log", opts.RecordLog, "Record log file, empty to disable [FILTER_RECORD_LOG]")
			flags.BoolVar(&opts.Preview, "preview", false, "Also write a before/after animated PNG")
		}
	}

	rootCmd.AddCommand(filterCmd, watchCmd, apiServerCmd, versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Printf("Error: %v", err)
		os.Exit(internal.ExitCode(err))
	}
}
