package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/celer-network/rollup-committer/chain"
	"github.com/celer-network/rollup-committer/committer"
	"github.com/celer-network/rollup-committer/config"
	"github.com/celer-network/rollup-committer/db"
	"github.com/celer-network/rollup-committer/db/badgerdb"
	"github.com/celer-network/rollup-committer/db/memorydb"
	"github.com/celer-network/rollup-committer/log"
	"github.com/celer-network/rollup-committer/storage"
	"github.com/celer-network/rollup-committer/types"
	"github.com/celer-network/rollup-committer/utils"
)

var (
	configDir = flag.String("config", "/tmp/rollup_committer/config", "Config directory")
	dbDir     = flag.String("db", "", "DB directory, overrides db.dir")
	keystore  = flag.String("keystore", "", "Sender keystore file, overrides chain.keystore")
	pending   = flag.Bool("pending", false, "Print unconfirmed operation records as yaml and exit")
)

var logger = log.NewLogger("main")

func openDB(cfg config.DBConfig) (db.DB, error) {
	if cfg.Type == "memorydb" {
		logger.Warn().Msg("Using memorydb, committed operations do not survive a restart")
		return memorydb.NewDB(), nil
	}
	return badgerdb.NewDB(cfg.Dir)
}

func main() {
	flag.Parse()

	cfg, err := config.LoadDir(*configDir)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", *configDir).Msg("Fail to load config")
	}
	if *dbDir != "" {
		cfg.DB.Dir = *dbDir
	}
	if *keystore != "" {
		cfg.Chain.Keystore = *keystore
	}

	database, err := openDB(cfg.DB)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.DB.Dir).Msg("Fail to open db")
	}
	defer database.Close()
	store := storage.NewStore(database)

	if *pending {
		if err = dumpPending(os.Stdout, store, cfg.SenderAccount); err != nil {
			logger.Error().Err(err).Msg("Fail to list pending operations")
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auth, err := utils.GetAuthFromKeystore(cfg.Chain.Keystore, cfg.Chain.KeystorePassword, cfg.Chain.GasLimit)
	if err != nil {
		logger.Fatal().Err(err).Str("keystore", cfg.Chain.Keystore).Msg("Fail to read keystore")
	}
	client, err := chain.Dial(ctx, cfg.Chain.Endpoint, auth, cfg.Chain.Contract, cfg.DepositBatchSize)
	if err != nil {
		logger.Fatal().Err(err).Str("endpoint", cfg.Chain.Endpoint).Msg("Fail to dial chain")
	}
	if client.DefaultAccount() != cfg.SenderAccount {
		logger.Fatal().Str("keystore", client.DefaultAccount().Hex()).Str("sender", cfg.SenderAccount.Hex()).
			Msg("Keystore does not sign for the sender account")
	}

	service, err := committer.NewService(committer.ServiceConfig{
		SenderAccount:        cfg.SenderAccount,
		DepositBatchSize:     cfg.DepositBatchSize,
		DepositFillerAccount: cfg.DepositFillerAccount,
		Precommitment:        committer.StaticPrecommitment(cfg.ExitPrecommitment),
		Retry:                committer.NewRetryPolicy(cfg.Retry.MaxAttempts, cfg.Retry.InitialInterval, cfg.Retry.MaxInterval),
	}, store, client)
	if err != nil {
		logger.Fatal().Err(err).Msg("Fail to create committer")
	}
	if err = service.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Fail to recover pending operations")
	}
	logger.Info().Str("sender", service.Address().Hex()).Msg("Committer started")

	ops := make(chan types.Operation)
	go readOperations(ctx, os.Stdin, ops)
	runErr := make(chan error, 1)
	go func() {
		runErr <- service.Run(ctx, ops)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err = <-runErr:
		if err != nil {
			logger.Fatal().Err(err).Msg("Committer stopped")
		}
		logger.Info().Msg("Producer feed closed, draining queue")
	case <-service.Done():
		logger.Fatal().Err(service.Stop()).Msg("Sender stopped")
	case sig := <-sigs:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
	}

	if err = service.Stop(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Sender stopped with error")
	}
}
