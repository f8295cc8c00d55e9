package main

import (
	"fmt"
	"slices"

	"github.com/kjk/linestore/linestore"
	"github.com/kjk/linestore/log"
	"github.com/spf13/cobra"
)

// record is a single JSON object stored on one line
type record = map[string]any

// RootOptions holds global flags for all commands
type RootOptions struct {
	File       string
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "pretty"

	cfg *Config
}

var ValidFormats = []string{"json", "pretty"}

// NewRootCommand creates the root command for the lstore CLI
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{cfg: &Config{}}

	cmd := &cobra.Command{
		Use:   "lstore",
		Short: "lstore - inspect and modify line-delimited JSON stores",
		Long: `lstore works on a file with one JSON object per line.

Records are appended at the end of the file. Updates and deletes
rewrite the file through a temporary file that replaces the original.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Close()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.File, "file", "f", "", "path of the store file")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path of a yaml config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "record output format (json|pretty)")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewFindCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewSizeCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewRecoverCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))
	cmd.AddCommand(NewPushCommand(opts))
	cmd.AddCommand(NewPullCommand(opts))
	cmd.AddCommand(NewSnapshotsCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))

	return cmd
}

// setup loads the config file and sets up logging.
// Flags override values from the config file.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if o.ConfigPath != "" {
		cfg, err := LoadConfig(o.ConfigPath)
		if err != nil {
			return err
		}
		o.cfg = cfg
	}
	if o.File == "" {
		o.File = o.cfg.File
	}
	// library logging must not mix with records written to stdout
	log.Output = cmd.ErrOrStderr()
	log.Verbose = o.Verbose || o.cfg.Verbose
	if o.cfg.LogDir != "" {
		log.Init(&log.Config{Dir: o.cfg.LogDir})
	}
	return nil
}

func (o *RootOptions) openStore() (*linestore.Store[record], error) {
	if o.File == "" {
		return nil, fmt.Errorf("no store file, use --file or set 'file' in config")
	}
	s := &linestore.Store[record]{
		Path:               o.File,
		Codec:              recordCodec{},
		SyncWrite:          o.cfg.SyncWrite,
		RemoveBeforeRename: o.cfg.RemoveBeforeRename,
	}
	if err := linestore.OpenStore(s); err != nil {
		return nil, err
	}
	log.Verbosef("using store '%s'\n", s.Path)
	return s, nil
}
