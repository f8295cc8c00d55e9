package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/tidwall/pretty"
)

func writeRecord(w io.Writer, format string, rec record) error {
	d, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if format == "pretty" {
		d = pretty.Pretty(d)
	} else {
		d = append(d, '\n')
	}
	_, err = w.Write(d)
	return err
}

func writeRecords(w io.Writer, format string, recs []record) error {
	for _, rec := range recs {
		if err := writeRecord(w, format, rec); err != nil {
			return err
		}
	}
	return nil
}

func recordsToText(recs []record) (string, error) {
	var sb strings.Builder
	for _, rec := range recs {
		d, err := json.Marshal(rec)
		if err != nil {
			return "", err
		}
		sb.Write(d)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// writeDiff writes a unified diff between records before and after a change
func writeDiff(w io.Writer, name string, before, after []record) error {
	a, err := recordsToText(before)
	if err != nil {
		return err
	}
	b, err := recordsToText(after)
	if err != nil {
		return err
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  1,
	}
	return difflib.WriteUnifiedDiff(w, diff)
}

func nRecords(n int) string {
	return fmt.Sprintf("%d record(s)", n)
}
