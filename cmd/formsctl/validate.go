package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nurpe/eforms/internal/validation"
)

var errInvalidForm = errors.New("form has validation errors")

func newValidateCmd(c *cli) *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "validate [file.json]",
		Short: "Check a JSON submission against the field rules (stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			if profile == "" {
				profile = c.cfg.Forms.ValidationProfile
			}
			p, ok := validation.ParseProfile(profile)
			if !ok {
				return fmt.Errorf("unknown profile %q", profile)
			}

			errs, err := validateJSON(r, validation.New(validation.Options{Profile: p}))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(errs) == 0 {
				fmt.Fprintln(out, "ok")
				return nil
			}
			for _, fe := range errs {
				fmt.Fprintf(out, "%s: %s\n", fe.Field, fe.Reason)
			}
			return errInvalidForm
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "form or ingest (default from VALIDATION_PROFILE)")
	return cmd
}

func validateJSON(r io.Reader, v *validation.Validator) (validation.Errors, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode submission: %w", err)
	}
	fields := make(map[string]string, len(raw))
	for k, val := range raw {
		switch typed := val.(type) {
		case nil:
		case string:
			fields[k] = typed
		case json.Number:
			fields[k] = typed.String()
		default:
			fields[k] = fmt.Sprint(typed)
		}
	}
	return v.Check(validation.InputFromMap(fields)), nil
}
