package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "planner",
		Short:        "Pool quoting and unlock-payload planning",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Simulate a swap against live pool state",
		RunE:  runQuote,
	}

	addPoolFlags(quoteCmd)
	quoteCmd.Flags().Bool("exact-out", false, "treat amount as the desired output")
	quoteCmd.Flags().Bool("zero-for-one", true, "swap currency0 for currency1")
	quoteCmd.Flags().String("amount", "", "raw swap amount")
	quoteCmd.Flags().Int("slippage-bips", 50, "slippage tolerance in bips")
	quoteCmd.Flags().String("recipient", "", "take recipient for the planned payload")
	quoteCmd.Flags().Bool("plan", false, "emit the finalized unlock payload")
	quoteCmd.Flags().Bool("from-db", false, "serve tick data from Postgres instead of the bitmap walk")
	quoteCmd.Flags().String("out", "./data/quotes.jsonl", "output JSONL path")
	quoteCmd.Flags().String("pg-dsn", "", "Postgres DSN")

	root.AddCommand(quoteCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Capture a pool's initialized ticks into Postgres",
		RunE:  runSnapshot,
	}

	addPoolFlags(snapshotCmd)
	snapshotCmd.Flags().String("pg-dsn", "", "Postgres DSN")

	root.AddCommand(snapshotCmd)

	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Plan a slippage-capped position mint for the position manager",
		RunE:  runMint,
	}

	addPoolFlags(mintCmd)
	mintCmd.Flags().String("position-manager", "", "position manager contract address")
	mintCmd.Flags().Int("tick-lower", 0, "position lower tick")
	mintCmd.Flags().Int("tick-upper", 0, "position upper tick")
	mintCmd.Flags().String("amount0", "", "raw currency0 amount to fund with")
	mintCmd.Flags().String("amount1", "", "raw currency1 amount to fund with")
	mintCmd.Flags().Int("slippage-bips", 50, "slippage tolerance in bips")
	mintCmd.Flags().String("owner", "", "position recipient address")
	mintCmd.Flags().Uint64("deadline", 0, "modifyLiquidities deadline, unix seconds")

	root.AddCommand(mintCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode <hex payload>",
		Short: "Decode an unlock payload into its actions",
		Args:  cobra.ExactArgs(1),
		RunE:  runDecodeCmd,
	}

	decodeCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(decodeCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "Ethereum RPC URL")
	cmd.Flags().String("pool-manager", "", "pool manager contract address")
	cmd.Flags().String("currency0", "", "pool currency address (zero address for native)")
	cmd.Flags().String("currency1", "", "pool currency address")
	cmd.Flags().Uint32("fee", 3000, "pool fee in hundredths of a bip")
	cmd.Flags().Int("tick-spacing", 60, "pool tick spacing")
	cmd.Flags().String("hooks", "", "pool hooks address")
	cmd.Flags().Uint64("block", 0, "block number, 0 means latest")
	cmd.Flags().Uint64("chain-id", 0, "chain id, 0 means fetch from RPC")
	cmd.Flags().String("native-symbol", "ETH", "native currency symbol")
	cmd.Flags().Uint("native-decimals", 18, "native currency decimals")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func parseAddress(name, value string) (common.Address, error) {
	if value == "" {
		return common.Address{}, nil
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%s: malformed address %q", name, value)
	}
	return common.HexToAddress(value), nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
