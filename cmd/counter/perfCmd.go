package counter

import (
	"encoding/csv"
	"fmt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tallykv/tally/cmd/util"
	"github.com/tallykv/tally/rpc/common"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for tally servers",
		Long:    "",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfNamePrefix    = "__test"
	perfNumThreads    = 10
	perfCounterSpread = 100
	perfSkip          = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	CounterCommands.PersistentFlags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. add,count)"))
	key = "threads"
	CounterCommands.PersistentFlags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "counters"
	CounterCommands.PersistentFlags().Int(key, 100, util.WrapString("How many different counters to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfCounterSpread = viper.GetInt("counters")
	perfNumThreads = viper.GetInt("threads")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for tally servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Println()

	fmt.Println("staring tests...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	addResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("add") {
			return
		}

		// prepare counter names
		getName, iter := getNames("add")

		// cleanup
		b.Cleanup(func() {
			iter(func(n string) {
				err := rpcCounter.Reset(n)
				if err != nil {
					log.Printf("(add) - error resetting counter: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			i := 0
			for pb.Next() {
				_, err := rpcCounter.Add(getName(i), 1)
				if err != nil {
					log.Printf("(add) - error adding to counter: %v\n", err)
				}
				i++
			}
		})
	})

	results["add"] = addResult
	printResult("add", addResult)

	addPinnedResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("add-pinned") {
			return
		}

		// prepare counter names
		getName, iter := getNames("add-pinned")

		// cleanup
		b.Cleanup(func() {
			iter(func(n string) {
				err := rpcCounter.Reset(n)
				if err != nil {
					log.Printf("(add-pinned) - error resetting counter: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			i := 0
			for pb.Next() {
				_, err := rpcCounter.AddPinned(getName(i), 1, 0)
				if err != nil {
					log.Printf("(add-pinned) - error adding to counter: %v\n", err)
				}
				i++
			}
		})
	})

	results["add-pinned"] = addPinnedResult
	printResult("add-pinned", addPinnedResult)

	countResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("count") {
			return
		}

		// prepare counter names
		getName, iter := getNames("count")

		// seed counters
		iter(func(n string) {
			_, err := rpcCounter.Add(n, 1)
			if err != nil {
				log.Printf("(count) - error adding to counter: %v\n", err)
			}
		})

		// cleanup
		b.Cleanup(func() {
			iter(func(n string) {
				err := rpcCounter.Reset(n)
				if err != nil {
					log.Printf("(count) - error resetting counter: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			i := 0
			for pb.Next() {
				_, err := rpcCounter.Count(getName(i))
				if err != nil {
					log.Printf("(count) - error reading counter: %v\n", err)
				}
				i++
			}
		})
	})

	results["count"] = countResult
	printResult("count", countResult)

	estimateResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("estimate") {
			return
		}

		// prepare counter names
		getName, iter := getNames("estimate")

		// seed counters
		iter(func(n string) {
			_, err := rpcCounter.Add(n, 1)
			if err != nil {
				log.Printf("(estimate) - error adding to counter: %v\n", err)
			}
		})

		// cleanup
		b.Cleanup(func() {
			iter(func(n string) {
				err := rpcCounter.Reset(n)
				if err != nil {
					log.Printf("(estimate) - error resetting counter: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			i := 0
			for pb.Next() {
				_, err := rpcCounter.EstimateCount(getName(i))
				if err != nil {
					log.Printf("(estimate) - error estimating counter: %v\n", err)
				}
				i++
			}
		})
	})

	results["estimate"] = estimateResult
	printResult("estimate", estimateResult)

	rebalanceResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("rebalance") {
			return
		}

		// prepare counter names
		getName, iter := getNames("rebalance")

		// seed counters so there is something to redistribute
		iter(func(n string) {
			_, err := rpcCounter.Add(n, 1000)
			if err != nil {
				log.Printf("(rebalance) - error adding to counter: %v\n", err)
			}
		})

		// cleanup
		b.Cleanup(func() {
			iter(func(n string) {
				err := rpcCounter.Reset(n)
				if err != nil {
					log.Printf("(rebalance) - error resetting counter: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			i := 0
			for pb.Next() {
				err := rpcCounter.Rebalance(getName(i))
				if err != nil {
					log.Printf("(rebalance) - error rebalancing counter: %v\n", err)
				}
				i++
			}
		})
	})

	results["rebalance"] = rebalanceResult
	printResult("rebalance", rebalanceResult)

	mixedUsageResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("mixed") {
			return
		}

		// prepare counter names
		getName, iter := getNames("mixed")

		// seed counters
		iter(func(n string) {
			_, err := rpcCounter.Add(n, 1)
			if err != nil {
				log.Printf("(mixed) - error adding to counter: %v\n", err)
			}
		})

		// cleanup
		b.Cleanup(func() {
			iter(func(n string) {
				err := rpcCounter.Reset(n)
				if err != nil {
					log.Printf("(mixed) - error resetting counter: %v\n", err)
				}
			})
		})

		b.SetParallelism(perfNumThreads)

		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			i := 0
			name := getName(i)
			for pb.Next() {
				var err error
				switch i % 4 {
				case 0: // add
					_, err = rpcCounter.Add(name, 1)
				case 1: // count
					_, err = rpcCounter.Count(name)
				case 2: // estimate
					_, err = rpcCounter.EstimateCount(name)
				case 3: // rebalance
					err = rpcCounter.Rebalance(name)
				}

				if err != nil {
					log.Printf("(mixed) - error performing operation (%d): %v\n", i%4, err)
				}
				i++
			}
		})
	})

	results["mixed"] = mixedUsageResult
	printResult("mixed", mixedUsageResult)

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// creates an array of test counter names and functions to work with them
func getNames(prefix string) (func(int) string, func(func(string))) {
	names := make([]string, perfCounterSpread)
	for i := 0; i < perfCounterSpread; i++ {
		names[i] = fmt.Sprintf("%s-%s-%d", perfNamePrefix, prefix, i)
	}

	// Function to get a name by index (with wraparound)
	getName := func(i int) string {
		return names[i%perfCounterSpread]
	}

	// Function to iterate over all names and apply a function to each
	iterateNames := func(fn func(string)) {
		for _, name := range names {
			fn(name)
		}
	}

	return getName, iterateNames
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"ShardID", "Serializer", "Transport",
		"Threads", "Counters Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetShardID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfCounterSpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
