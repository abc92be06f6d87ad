package counter

import (
	"fmt"
	"github.com/spf13/cobra"
	"strconv"
)

var (
	addCmd = &cobra.Command{
		Use:   "add [name] [delta]",
		Short: "Adds a delta to a counter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			delta, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("delta must be a number: %w", err)
			}
			pinned, err := cmd.Flags().GetInt32("pin")
			if err != nil {
				return err
			}
			if pinned >= 0 {
				shard, err := rpcCounter.AddPinned(name, delta, uint32(pinned))
				if err != nil {
					return err
				}
				fmt.Printf("name=%s, shard=%d (pinned)\n", name, shard)
				return nil
			}
			shard, err := rpcCounter.Add(name, delta)
			if err != nil {
				return err
			}
			fmt.Printf("name=%s, shard=%d\n", name, shard)
			return nil
		},
	}
	countCmd = &cobra.Command{
		Use:   "count [name]",
		Short: "Reads the exact value of a counter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if value, err := rpcCounter.Count(name); err != nil {
				return err
			} else {
				fmt.Printf("name=%s, value=%g\n", name, value)
			}
			return nil
		},
	}
	estimateCmd = &cobra.Command{
		Use:   "estimate [name]",
		Short: "Estimates the value of a counter from a shard sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			readFrom, err := cmd.Flags().GetInt("read-from")
			if err != nil {
				return err
			}
			var value float64
			if readFrom > 0 {
				value, err = rpcCounter.EstimateCountN(name, readFrom)
			} else {
				value, err = rpcCounter.EstimateCount(name)
			}
			if err != nil {
				return err
			}
			fmt.Printf("name=%s, value=%g (estimated)\n", name, value)
			return nil
		},
	}
	rebalanceCmd = &cobra.Command{
		Use:   "rebalance [name]",
		Short: "Redistributes a counter's total across its shards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			shardCount, err := cmd.Flags().GetInt("shard-count")
			if err != nil {
				return err
			}
			if shardCount > 0 {
				err = rpcCounter.RebalanceTo(name, shardCount)
			} else {
				err = rpcCounter.Rebalance(name)
			}
			if err != nil {
				return err
			}
			fmt.Println("rebalance successfully")
			return nil
		},
	}
	resetCmd = &cobra.Command{
		Use:   "reset [name]",
		Short: "Resets a counter to zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := rpcCounter.Reset(name); err != nil {
				return err
			}
			fmt.Println("reset successfully")
			return nil
		},
	}
)

func init() {
	addCmd.Flags().Int32("pin", -1, "pin the write to a specific shard index (negative for random selection)")
	estimateCmd.Flags().Int("read-from", 0, "number of shards to sample (0 for the server default)")
	rebalanceCmd.Flags().Int("shard-count", 0, "number of shards to distribute onto (0 for the configured count)")
}
