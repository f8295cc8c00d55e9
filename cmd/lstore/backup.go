package main

import (
	"fmt"
	"time"

	"github.com/kjk/linestore/minioutil"
	"github.com/kjk/linestore/snapshot"
	"github.com/kjk/linestore/u"
	"github.com/spf13/cobra"
)

func NewRecoverCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recover",
		Short: "Restore the store file from a left-over temporary file",
		Long: `After a failed rewrite the data might only be in the temporary file.
If the store file doesn't exist and the temporary file does, rename
the temporary file into place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore()
			if err != nil {
				return err
			}
			recovered, err := s.RecoverTemp()
			if err != nil {
				return err
			}
			if recovered {
				fmt.Fprintf(cmd.OutOrStdout(), "recovered from temporary file\n")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "nothing to recover\n")
			}
			return nil
		},
	}
}

func NewBackupCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backup <dst>",
		Short: "Save a copy of the store",
		Long:  `Save a copy of the store, compressed if dst ends with .zst, .br or .gz`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore()
			if err != nil {
				return err
			}
			n, err := snapshot.Save(s, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d bytes\n", n)
			return nil
		},
	}
}

func NewRestoreCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <src>",
		Short: "Replace content of the store with a backup",
		Long: `Replace content of the store with records from a backup created with
'backup'. Every record is validated first, the store is not modified
if any of them is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore()
			if err != nil {
				return err
			}
			n, err := snapshot.Load(s, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", nRecords(n))
			return nil
		},
	}
}

func (o *RootOptions) remote() (*minioutil.Client, error) {
	if o.cfg.S3 == nil {
		return nil, fmt.Errorf("no 's3' section in config")
	}
	return minioutil.New(o.cfg.S3)
}

func NewPushCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "push [remote-name]",
		Short: "Upload a snapshot of the store to s3",
		Long: `Upload a zstd compressed snapshot of the store to s3 configured in
the config file. Without remote-name the snapshot is named after
the store file and current time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore()
			if err != nil {
				return err
			}
			mc, err := opts.remote()
			if err != nil {
				return err
			}
			name := snapshot.RemoteName(s.Path, time.Now(), u.ExtZstd)
			if len(args) > 0 {
				name = args[0]
			}
			if mc.Exists(name) {
				return fmt.Errorf("snapshot '%s' already exists", name)
			}
			if err = snapshot.Push(s, mc, name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", name)
			return nil
		},
	}
}

func NewPullCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <remote-name>",
		Short: "Replace content of the store with a snapshot from s3",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore()
			if err != nil {
				return err
			}
			mc, err := opts.remote()
			if err != nil {
				return err
			}
			n, err := snapshot.Pull(s, mc, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", nRecords(n))
			return nil
		},
	}
}

func NewSnapshotsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshots",
		Short: "List snapshots of the store in s3",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore()
			if err != nil {
				return err
			}
			mc, err := opts.remote()
			if err != nil {
				return err
			}
			names, err := mc.List(snapshot.RemotePrefix(s.Path))
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", name)
			}
			return nil
		},
	}
}
