package docs

import (
	"github.com/croftdb/croft/cmd/util"
	"github.com/croftdb/croft/rpc/client"
	"github.com/spf13/cobra"
)

var (
	docStore client.IRemoteDocStore

	// DocCommands represents the document store command group
	DocCommands = &cobra.Command{
		Use:               "docs",
		Short:             "Perform document store operations",
		PersistentPreRunE: setupDocClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the docs command
	util.SetupRPCClientFlags(DocCommands)

	// Add subcommands
	DocCommands.AddCommand(saveCmd)
	DocCommands.AddCommand(getCmd)
	DocCommands.AddCommand(delCmd)
	DocCommands.AddCommand(searchCmd)
	DocCommands.AddCommand(statsCmd)
	DocCommands.AddCommand(perfTestCmd)
}

// setupDocClient initializes the RPC document store client
func setupDocClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the document store client
	docStore, err = client.NewRemoteDocStore(
		*config,
		t,
		s,
	)

	return err
}
