package counter

import (
	"github.com/spf13/cobra"
	"github.com/tallykv/tally/cmd/util"
	"github.com/tallykv/tally/lib/counter"
	"github.com/tallykv/tally/rpc/client"
)

var (
	rpcCounter counter.ICounter[string]

	// CounterCommands represents the counter command group
	CounterCommands = &cobra.Command{
		Use:               "counter",
		Short:             "Perform counter operations",
		PersistentPreRunE: setupCounterClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the counter command
	util.SetupRPCClientFlags(CounterCommands)

	// Set default shard ID for counter operations
	CounterCommands.PersistentFlags().Int("shard", 100, util.WrapString("ID of the shard to connect to"))

	// Add subcommands
	CounterCommands.AddCommand(addCmd)
	CounterCommands.AddCommand(countCmd)
	CounterCommands.AddCommand(estimateCmd)
	CounterCommands.AddCommand(rebalanceCmd)
	CounterCommands.AddCommand(resetCmd)
	CounterCommands.AddCommand(perfTestCmd)
}

// setupCounterClient initializes the RPC counter client
func setupCounterClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()
	shardId := util.GetShardID()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the counter client
	rpcCounter, err = client.NewRPCCounter(
		shardId,
		*config,
		t,
		s,
	)

	return err
}
