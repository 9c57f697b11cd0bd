package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/minio/spark-select/go/config"
	"github.com/minio/spark-select/go/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputCSV   = "csv"
)

type rootOptions struct {
	cfg        *config.Config
	cfgFlags   *flag.FlagSet
	configFile string
	output     string
	stdout     io.Writer

	// sessionOptions are appended to the options derived from cfg.
	sessionOptions []storage.SessionOption
}

func execute(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd := newRootCmd(os.Stdout)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout io.Writer, sessionOptions ...storage.SessionOption) *cobra.Command {
	opts := &rootOptions{
		cfg:            &config.Config{},
		stdout:         stdout,
		sessionOptions: sessionOptions,
	}
	goFlags := flag.NewFlagSet("spark-select", flag.ContinueOnError)
	opts.cfg.RegisterFlags(goFlags)
	opts.cfgFlags = goFlags

	rootCmd := &cobra.Command{
		Use:           "spark-select",
		Short:         "Read filtered rows out of objects in an S3 compatible store",
		Long:          "Reads Parquet, CSV and JSON objects through a declared schema, pushing filters down to the store's Select API where possible.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.loadConfigFile(cmd.Flags()); err != nil {
				return err
			}
			switch opts.output {
			case outputTable, outputJSON, outputCSV:
			default:
				return fmt.Errorf("unsupported output format %q: use 'table', 'json' or 'csv'", opts.output)
			}
			return opts.cfg.Validate()
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.PersistentFlags().AddGoFlagSet(goFlags)
	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config.file", "", "YAML file with the configuration. Flags given on the command line take precedence.")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputTable, "Output format (table, json, csv)")

	rootCmd.AddCommand(newShowCmd(opts))
	rootCmd.AddCommand(newSchemaCmd(opts))
	return rootCmd
}

// loadConfigFile overlays the config file onto the flag defaults and then
// reapplies the config flags set on the command line.
func (o *rootOptions) loadConfigFile(flags *pflag.FlagSet) error {
	if o.configFile == "" {
		return nil
	}
	changed := make(map[string]string)
	flags.Visit(func(f *pflag.Flag) {
		if o.cfgFlags.Lookup(f.Name) != nil {
			changed[f.Name] = f.Value.String()
		}
	})
	if err := o.cfg.LoadFile(o.configFile); err != nil {
		return err
	}
	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

func (o *rootOptions) newSession() (*storage.Session, error) {
	sessionOptions := append([]storage.SessionOption{storage.WithConfig(o.cfg)}, o.sessionOptions...)
	return storage.NewSession(sessionOptions...)
}
