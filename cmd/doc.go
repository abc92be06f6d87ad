// Package cmd implements the command-line interface for the tally distributed
// sharded counter service. It provides a hierarchical command structure with
// operations for running the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - counter: Commands for counter operations (add, count, estimate, rebalance, reset)
//   - serve: Commands for starting and configuring the tally server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See tally -help for a list of all commands.
package cmd
