package cmd

import (
	"fmt"
	"os"

	"github.com/croftdb/croft/cmd/docs"
	"github.com/croftdb/croft/cmd/serve"
	"github.com/croftdb/croft/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "croft",
		Short: "searchable document store",
		Long: fmt.Sprintf(`croft (v%s)

A document persistence engine written in Go. Typed records are flattened
into per-tenant full text indexes and come back out through searches.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of croft",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("croft v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(docs.DocCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "http", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
