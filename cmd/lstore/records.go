package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type AddOptions struct {
	*RootOptions
	GenID bool
}

func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <json>...",
		Short: "Append records",
		Long:  `Append JSON objects, one per argument, at the end of the store in a single write.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, args, cmd)
		},
	}
	cmd.Flags().BoolVar(&opts.GenID, "gen-id", false, `set "id" to a random uuid if missing`)
	return cmd
}

func parseRecord(s string) (record, error) {
	rec, err := decodeRecord(s)
	if err != nil {
		return nil, fmt.Errorf("invalid record '%s': %w", s, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("invalid record '%s': not an object", s)
	}
	return rec, nil
}

func runAdd(opts *AddOptions, args []string, cmd *cobra.Command) error {
	var recs []record
	for _, arg := range args {
		rec, err := parseRecord(arg)
		if err != nil {
			return err
		}
		if _, ok := rec["id"]; !ok && opts.GenID {
			rec["id"] = uuid.NewString()
		}
		recs = append(recs, rec)
	}
	s, err := opts.openStore()
	if err != nil {
		return err
	}
	if err = s.Append(recs...); err != nil {
		return err
	}
	if opts.GenID {
		for _, rec := range recs {
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", rec["id"])
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", nRecords(len(recs)))
	return nil
}

func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore()
			if err != nil {
				return err
			}
			recs, errFn := s.Records(true)
			for rec := range recs {
				if err = writeRecord(cmd.OutOrStdout(), opts.Format, rec); err != nil {
					// stops the iteration
					return err
				}
			}
			return errFn()
		},
	}
}

// where is a list of field=value conditions, all must match
type where []string

func parseWhere(conds []string) (where, error) {
	for _, c := range conds {
		k, _, ok := strings.Cut(c, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid condition '%s', expected field=value", c)
		}
	}
	return where(conds), nil
}

func (w where) match(rec record) bool {
	for _, c := range w {
		k, v, _ := strings.Cut(c, "=")
		got, ok := rec[k]
		if !ok || fmt.Sprint(got) != v {
			return false
		}
	}
	return true
}

type FindOptions struct {
	*RootOptions
	Where []string
	All   bool
}

func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Print records matching conditions",
		Long: `Print the first record matching all --where conditions,
or all of them with --all. A condition field=value matches records
whose field formats to value e.g. id=3 or name=john.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(opts, cmd)
		},
	}
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "field=value condition (repeatable)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "print all matching records")
	_ = cmd.MarkFlagRequired("where")
	return cmd
}

func runFind(opts *FindOptions, cmd *cobra.Command) error {
	w, err := parseWhere(opts.Where)
	if err != nil {
		return err
	}
	s, err := opts.openStore()
	if err != nil {
		return err
	}
	if opts.All {
		recs, err := s.FindAll(w.match, true)
		if err != nil {
			return err
		}
		return writeRecords(cmd.OutOrStdout(), opts.Format, recs)
	}
	rec, found, err := s.FindOne(w.match, true)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no record matches %s", strings.Join(w, " "))
	}
	return writeRecord(cmd.OutOrStdout(), opts.Format, rec)
}

func NewCountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print number of records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore()
			if err != nil {
				return err
			}
			n, err := s.Count(true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", n)
			return nil
		},
	}
}

func NewSizeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Print size of the store file in bytes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore()
			if err != nil {
				return err
			}
			size, err := s.SizeOnDisk()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", size)
			return nil
		},
	}
}

func NewClearCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.openStore()
			if err != nil {
				return err
			}
			if err = s.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared\n")
			return nil
		},
	}
}
