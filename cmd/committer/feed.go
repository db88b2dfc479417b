package main

import (
	"bufio"
	"context"
	"io"

	"github.com/celer-network/rollup-committer/storage"
	"github.com/celer-network/rollup-committer/types"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"
)

const maxOperationLine = 16 << 20

// readOperations decodes one JSON operation per line from r into ops and closes ops at EOF.
// Lines that do not decode are logged and skipped.
func readOperations(ctx context.Context, r io.Reader, ops chan<- types.Operation) {
	defer close(ops)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxOperationLine)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		op, err := types.DecodeOperation(scanner.Bytes())
		if err != nil {
			logger.Error().Err(err).Int("line", line).Msg("Skip malformed operation")
			continue
		}
		select {
		case ops <- op:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error().Err(err).Msg("Fail to read producer feed")
	}
}

type pendingEntry struct {
	Nonce    uint64 `yaml:"nonce"`
	Status   string `yaml:"status"`
	Op       string `yaml:"op"`
	Checksum string `yaml:"checksum"`
	Error    string `yaml:"error,omitempty"`
}

type pendingDump struct {
	Address string         `yaml:"address"`
	Next    uint64         `yaml:"nextNonce"`
	Records []pendingEntry `yaml:"records"`
}

// dumpPending writes every unconfirmed record of addr as yaml.
func dumpPending(w io.Writer, store *storage.Store, addr common.Address) error {
	next, err := store.NextNonce(addr)
	if err != nil {
		return err
	}
	records, err := store.LoadPendingOps(addr, 0)
	if err != nil {
		return err
	}

	dump := pendingDump{Address: addr.Hex(), Next: next, Records: make([]pendingEntry, 0, len(records))}
	for _, record := range records {
		entry := pendingEntry{
			Nonce:    record.Nonce,
			Status:   record.Status.String(),
			Checksum: record.Checksum.Hex(),
		}
		if op, err := record.Operation(); err != nil {
			entry.Error = err.Error()
		} else {
			entry.Op = types.Describe(op)
		}
		dump.Records = append(dump.Records, entry)
	}

	out, err := yaml.Marshal(&dump)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
