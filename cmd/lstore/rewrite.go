package main

import (
	"fmt"
	"maps"
	"path/filepath"

	"github.com/spf13/cobra"
)

type RewriteOptions struct {
	*RootOptions
	Where  []string
	Set    string
	DryRun bool
}

func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RewriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Set fields of matching records",
		Long: `Set fields from --set on every record matching all --where conditions.
Fields not in --set are kept. With --dry-run prints a diff instead of
modifying the store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(opts, cmd)
		},
	}
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "field=value condition (repeatable)")
	cmd.Flags().StringVar(&opts.Set, "set", "", `json object with fields to set e.g. '{"name":"john"}'`)
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the diff and don't modify the store")
	_ = cmd.MarkFlagRequired("where")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RewriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete matching records",
		Long:  `Delete every record matching all --where conditions.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, cmd)
		},
	}
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "field=value condition (repeatable)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "print the diff and don't modify the store")
	_ = cmd.MarkFlagRequired("where")
	return cmd
}

func applySet(rec record, set record) record {
	res := maps.Clone(rec)
	maps.Copy(res, set)
	return res
}

func runUpdate(opts *RewriteOptions, cmd *cobra.Command) error {
	w, err := parseWhere(opts.Where)
	if err != nil {
		return err
	}
	set, err := parseRecord(opts.Set)
	if err != nil {
		return err
	}
	s, err := opts.openStore()
	if err != nil {
		return err
	}
	update := func(rec record) (record, bool) {
		if !w.match(rec) {
			return rec, false
		}
		return applySet(rec, set), true
	}

	out := cmd.OutOrStdout()
	if opts.DryRun {
		before, err := s.GetAll(true)
		if err != nil {
			return err
		}
		var after []record
		n := 0
		for _, rec := range before {
			rec, ok := update(rec)
			if ok {
				n++
			}
			after = append(after, rec)
		}
		if err = writeDiff(out, filepath.Base(s.Path), before, after); err != nil {
			return err
		}
		fmt.Fprintf(out, "dry run: would update %s\n", nRecords(n))
		return nil
	}

	n, err := s.UpdateFunc(update)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "updated %s\n", nRecords(n))
	return nil
}

func runDelete(opts *RewriteOptions, cmd *cobra.Command) error {
	w, err := parseWhere(opts.Where)
	if err != nil {
		return err
	}
	s, err := opts.openStore()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.DryRun {
		before, err := s.GetAll(true)
		if err != nil {
			return err
		}
		var after []record
		for _, rec := range before {
			if !w.match(rec) {
				after = append(after, rec)
			}
		}
		if err = writeDiff(out, filepath.Base(s.Path), before, after); err != nil {
			return err
		}
		fmt.Fprintf(out, "dry run: would delete %s\n", nRecords(len(before)-len(after)))
		return nil
	}

	n, err := s.DeleteWhere(w.match)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %s\n", nRecords(n))
	return nil
}
