package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/dumbstore/internal/errors"
	"github.com/vango-dev/dumbstore/pkg/hydrate"
	"github.com/vango-dev/dumbstore/pkg/store"
)

func hydrateCmd() *cobra.Command {
	var (
		file   string
		slot   string
		inject string
	)

	cmd := &cobra.Command{
		Use:   "hydrate",
		Short: "Print the hydration script for a JSON state",
		Long: `Read a JSON object and print the script element that recreates it
on the client.

Examples:
  echo '{"user":{"id":1}}' | dumbstore hydrate
  dumbstore hydrate --file state.json --slot __APP__
  dumbstore hydrate --file state.json --inject index.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return errors.Newf(errors.CategoryCLI, "open state file: %v", err).Wrap(err)
				}
				defer f.Close()
				in = f
			}
			return runHydrate(cmd.OutOrStdout(), in, slot, inject)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON state file (- for stdin)")
	cmd.Flags().StringVar(&slot, "slot", store.DefaultSlot, "Global slot name")
	cmd.Flags().StringVar(&inject, "inject", "", "HTML document to inject the script into")

	return cmd
}

func runHydrate(out io.Writer, in io.Reader, slot, inject string) error {
	dec := json.NewDecoder(in)
	dec.UseNumber()

	var state map[string]any
	if err := dec.Decode(&state); err != nil {
		return errors.Newf(errors.CategoryCLI, "state must be a JSON object: %v", err).Wrap(err)
	}
	if state == nil {
		return errors.Newf(errors.CategoryCLI, "state must be a JSON object, got null")
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.Newf(errors.CategoryCLI, "unexpected data after the state object").
			WithSuggestion("Pass a single JSON object; concatenated or trailing values are rejected.")
	}

	s := store.New(store.WithSlot(slot))
	s.Set(state)

	fragment, err := hydrate.Serialize(s)
	if err != nil {
		return err
	}

	if inject == "" {
		_, err = io.WriteString(out, string(fragment)+"\n")
		return err
	}

	doc, err := os.ReadFile(inject)
	if err != nil {
		return errors.Newf(errors.CategoryCLI, "read document: %v", err).Wrap(err)
	}
	_, err = io.Copy(out, bytes.NewReader(hydrate.Inject(doc, fragment)))
	return err
}
