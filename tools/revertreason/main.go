package main

import (
	"context"
	"flag"
	"time"

	"github.com/celer-network/rollup-committer/chain"
	"github.com/celer-network/rollup-committer/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	endpoint = flag.String("ethrpc", "http://127.0.0.1:8545", "ETH JSON-RPC url")
	txHash   = flag.String("tx", "", "Settlement transaction hash")
	timeout  = flag.Duration("timeout", 10*time.Second, "RPC timeout")
)

func main() {
	flag.Parse()
	logger := log.NewLogger("revertreason")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := ethclient.DialContext(ctx, *endpoint)
	if err != nil {
		logger.Fatal().Err(err).Str("endpoint", *endpoint).Send()
	}
	defer client.Close()

	reason, err := chain.RevertReason(ctx, client, common.HexToHash(*txHash))
	if err != nil {
		logger.Fatal().Err(err).Str("tx", *txHash).Send()
	}
	logger.Info().Str("tx", *txHash).Str("reason", reason).Send()
}
