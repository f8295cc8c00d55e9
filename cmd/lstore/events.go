package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/kjk/linestore/log"
	"github.com/kjk/linestore/siser"
	"github.com/spf13/cobra"
)

func NewEventsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "events [log-dir]",
		Short: "Print events logged by store operations",
		Long: `Print events (rewrites, restores, snapshots) logged to log-dir.
Without log-dir uses 'log_dir' from the config file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.cfg.LogDir
			if len(args) > 0 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no log dir, pass it as argument or set 'log_dir' in config")
			}
			return printEvents(cmd, log.EventsDir(dir))
		},
	}
}

// printEvents prints events from all daily files in dir, oldest first
func printEvents(cmd *cobra.Command, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return err
	}
	// names are dates so sorting by name sorts by time
	slices.Sort(files)
	w := cmd.OutOrStdout()
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		r := siser.NewReader(f)
		for r.ReadNext() {
			fmt.Fprintf(w, "%s %s\n", r.Timestamp.UTC().Format(time.RFC3339), r.Name)
			if n := len(r.Data); n > 0 {
				w.Write(r.Data)
				if r.Data[n-1] != '\n' {
					fmt.Fprintln(w)
				}
			}
		}
		f.Close()
		if err = r.Err(); err != nil {
			return fmt.Errorf("error reading '%s': %w", path, err)
		}
	}
	return nil
}
