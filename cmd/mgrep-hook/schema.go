package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/mgrep-hook/pkg/hooks"
)

var schemaTargets = map[string]func() any{
	"request":    func() any { return &hooks.HookRequest{} },
	"tool-input": func() any { return &hooks.GrepInput{} },
	"response":   func() any { return &hooks.HookResponse{} },
}

// schemaFor reflects the JSON Schema of one of the hook's wire documents.
func schemaFor(target string) (*jsonschema.Schema, error) {
	newValue, ok := schemaTargets[target]
	if !ok {
		return nil, errors.Errorf("unknown schema %q (want request, tool-input or response)", target)
	}
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	return reflector.Reflect(newValue()), nil
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [request|tool-input|response]",
		Short:     "Print the JSON Schema of the hook's input or output",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"request", "tool-input", "response"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "request"
			if len(args) == 1 {
				target = args[0]
			}
			schema, err := schemaFor(target)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return errors.Wrap(err, "failed to encode schema")
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
