// Package config loads the boot-time configuration of the committer. Values are read once;
// nothing in the running service reloads them.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/celer-network/rollup-committer/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

const (
	DefaultSenderAccount        = "e5d0efb4756bd5cdd4b5140d3d2e08ca7e6cf644"
	DefaultDepositBatchSize     = 8
	DefaultDepositFillerAccount = 1
)

// Files merged from the config directory, in order.
var configNames = []string{"committer", "ethereum_networks", "contract_addresses"}

type RetryConfig struct {
	// MaxAttempts is the number of resubmissions after a failed call. Zero disables retry.
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type ChainConfig struct {
	Endpoint         string
	Contract         common.Address
	Keystore         string
	KeystorePassword string
	GasLimit         uint64
}

type DBConfig struct {
	Type string
	Dir  string
}

type Config struct {
	SenderAccount        common.Address
	DepositBatchSize     int
	DepositFillerAccount types.AccountID
	ExitPrecommitment    common.Hash
	Retry                RetryConfig
	Chain                ChainConfig
	DB                   DBConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("committer.senderAccount", DefaultSenderAccount)
	v.SetDefault("committer.depositBatchSize", DefaultDepositBatchSize)
	v.SetDefault("committer.depositFillerAccount", DefaultDepositFillerAccount)
	v.SetDefault("committer.exitPrecommitment", common.Hash{}.Hex())
	v.SetDefault("sender.retry.maxAttempts", 0)
	v.SetDefault("sender.retry.initialInterval", time.Second)
	v.SetDefault("sender.retry.maxInterval", time.Minute)
	v.SetDefault("chain.endpoint", "ws://127.0.0.1:8546")
	v.SetDefault("chain.gasLimit", 0)
	v.SetDefault("db.type", "badgerdb")
	v.SetDefault("db.dir", "/tmp/rollup_committer/db")

	// the sending account keeps its historical env override
	v.BindEnv("committer.senderAccount", "SENDER_ACCOUNT")
}

// LoadDir merges the config files found in dir and returns the parsed configuration.
// Missing files are not an error; defaults apply.
func LoadDir(dir string) (*Config, error) {
	v := viper.New()
	if dir != "" {
		v.AddConfigPath(dir)
	}
	for _, name := range configNames {
		v.SetConfigName(name)
		if err := v.MergeInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config %s: %w", name, err)
			}
		}
	}
	return Load(v)
}

// Load parses the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	sender := v.GetString("committer.senderAccount")
	if !common.IsHexAddress(sender) {
		return nil, fmt.Errorf("invalid sender account %q", sender)
	}
	contract := v.GetString("chain.contract")
	if contract != "" && !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid contract address %q", contract)
	}

	cfg := &Config{
		SenderAccount:        common.HexToAddress(sender),
		DepositBatchSize:     v.GetInt("committer.depositBatchSize"),
		DepositFillerAccount: types.AccountID(v.GetUint32("committer.depositFillerAccount")),
		ExitPrecommitment:    common.HexToHash(v.GetString("committer.exitPrecommitment")),
		Retry: RetryConfig{
			MaxAttempts:     v.GetInt("sender.retry.maxAttempts"),
			InitialInterval: v.GetDuration("sender.retry.initialInterval"),
			MaxInterval:     v.GetDuration("sender.retry.maxInterval"),
		},
		Chain: ChainConfig{
			Endpoint:         v.GetString("chain.endpoint"),
			Contract:         common.HexToAddress(contract),
			Keystore:         v.GetString("chain.keystore"),
			KeystorePassword: v.GetString("chain.keystorePassword"),
			GasLimit:         v.GetUint64("chain.gasLimit"),
		},
		DB: DBConfig{
			Type: v.GetString("db.type"),
			Dir:  v.GetString("db.dir"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DepositBatchSize <= 0 {
		return fmt.Errorf("deposit batch size must be positive, got %d", c.DepositBatchSize)
	}
	if c.DepositFillerAccount > types.MaxAccountID {
		return fmt.Errorf("deposit filler account %d does not fit uint24", c.DepositFillerAccount)
	}
	if c.Retry.MaxAttempts < 0 {
		return errors.New("retry attempts must not be negative")
	}
	if c.Retry.MaxAttempts > 0 && (c.Retry.InitialInterval <= 0 || c.Retry.MaxInterval < c.Retry.InitialInterval) {
		return fmt.Errorf("invalid retry intervals %s..%s", c.Retry.InitialInterval, c.Retry.MaxInterval)
	}
	switch c.DB.Type {
	case "badgerdb", "memorydb":
	default:
		return fmt.Errorf("unknown db type %q", c.DB.Type)
	}
	return nil
}
