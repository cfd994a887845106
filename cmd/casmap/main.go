// Package main is the entry point for the casmap inspector CLI.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/casmap/casmap/cqltypes"
	"github.com/casmap/casmap/internal/debug"
	"github.com/casmap/casmap/query/builder"
	"github.com/casmap/casmap/query/cqlgen"
	"github.com/casmap/casmap/schema"
)

// Version is set by the build.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:     "casmap",
		Short:   "Inspect casmap type parsing and statement compilation",
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			debug.Init(verbose)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newTypeCommand())
	rootCmd.AddCommand(newExplainCommand())
	return rootCmd.Execute()
}

func newTypeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "type <type-string>",
		Short: "Parse a CQL type string and print its structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := cqltypes.Parse(args[0])
			if err != nil {
				return err
			}
			if !cqltypes.IsValidType(d, nil) {
				color.Yellow("warning: keyword or arity not valid without a UDT registry")
			}
			printDescriptor(d, 0)

			base, err := cqltypes.BaseType(args[0])
			if err == nil {
				fmt.Printf("base type: %s\n", color.CyanString(base))
			}
			if id, err := cqltypes.MarshalID(d, false, nil); err == nil {
				fmt.Printf("marshal:   %s\n", id)
			}
			return nil
		},
	}
}

func printDescriptor(d *cqltypes.TypeDescriptor, depth int) {
	fmt.Printf("%s%s\n", strings.Repeat("  ", depth), color.GreenString(d.Keyword))
	for _, p := range d.Params {
		printDescriptor(p, depth+1)
	}
}

func newExplainCommand() *cobra.Command {
	var keyspace, table string
	var columns []string

	cmd := &cobra.Command{
		Use:   "explain <where-column=value>...",
		Short: "Compile a sample select against an inline schema and print text plus parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			t := &schema.Table{
				Keyspace:      keyspace,
				Name:          table,
				Columns:       map[string]string{},
				PartitionKeys: []string{},
			}
			for _, spec := range columns {
				name, typeString, ok := strings.Cut(spec, ":")
				if !ok {
					return fmt.Errorf("column %q: want name:type", spec)
				}
				t.Columns[name] = typeString
			}

			b := builder.New(cqlgen.Source{Keyspace: keyspace, Table: table}, t, nil)
			b.Select()
			for _, arg := range args {
				column, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("predicate %q: want column=value", arg)
				}
				b.Where(column, value)
			}

			q, err := b.Build()
			if err != nil {
				return err
			}
			fmt.Println(color.GreenString(q.CQL))
			for i, a := range q.Args {
				fmt.Printf("  ?%d = %v\n", i+1, a)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&keyspace, "keyspace", "ks", "keyspace name")
	cmd.Flags().StringVar(&table, "table", "tbl", "table name")
	cmd.Flags().StringSliceVar(&columns, "column", nil, "column as name:type (repeatable)")
	return cmd
}
