package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wdm0006/rangerimpute/pkg/profile"
)

func newProfileCmd(a *app) *cobra.Command {
	var (
		input  string
		topK   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Summarize columns: types, missing rates and value distributions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			src := a.file.Input
			if cmd.Flags().Changed("input") {
				src.Path = input
			}
			if src.Path == "" {
				return fmt.Errorf("profile: no input dataset")
			}
			types, err := a.file.ColumnTypes()
			if err != nil {
				return err
			}
			in, schema, closer, err := openStream(src, types)
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()
			c := profile.NewCollector(schema, topK)
			for {
				f, err := in.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return err
				}
				c.ConsumeFrame(f)
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(c.ReportJSON())
			}
			_, err = io.WriteString(out, c.ReportText())
			return err
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input dataset")
	cmd.Flags().IntVar(&topK, "top", 5, "most frequent values to list per column")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}
