package main

import (
	"bytes"
	"fmt"
	"os"

	_ "threadline/docs"

	"github.com/spf13/cobra"
	"github.com/swaggo/swag"
	"gopkg.in/yaml.v3"
)

var openapiCmd = &cobra.Command{
	Use:     "openapi",
	Short:   "Export the registered swagger document",
	GroupID: "api",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := swag.ReadDoc()
		if err != nil {
			return fmt.Errorf("read swagger doc: %w", err)
		}

		out := []byte(doc)
		if format, _ := cmd.Flags().GetString("format"); format == "yaml" {
			if out, err = jsonToYAML(out); err != nil {
				return err
			}
		} else if format != "json" {
			return fmt.Errorf("unsupported format %q (want json or yaml)", format)
		}

		if path, _ := cmd.Flags().GetString("output"); path != "" {
			return os.WriteFile(path, out, 0o644)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	openapiCmd.Flags().String("format", "yaml", "Output format: json or yaml")
	openapiCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	rootCmd.AddCommand(openapiCmd)
}

// jsonToYAML re-encodes a JSON document as YAML, keeping key order.
func jsonToYAML(in []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(in, &node); err != nil {
		return nil, fmt.Errorf("parse swagger json: %w", err)
	}
	clearStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// clearStyle drops the flow and quoting styles the JSON parse leaves behind.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}
