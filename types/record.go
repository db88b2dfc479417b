package types

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

// ErrCorruptRecord is returned when a persisted record cannot be decoded or fails its checksum.
var ErrCorruptRecord = errors.New("corrupt operation record")

// SubmissionMeta is attached to an operation once it is persisted. It never changes.
type SubmissionMeta struct {
	Address common.Address `json:"address" yaml:"address"`
	Nonce   uint64         `json:"nonce" yaml:"nonce"`
}

func (m SubmissionMeta) String() string {
	return fmt.Sprintf("%s@%d", m.Address.Hex(), m.Nonce)
}

// OpStatus is the delivery state of a persisted record.
type OpStatus uint8

const (
	OpStatusPending OpStatus = iota
	OpStatusSent
	OpStatusConfirmed
	OpStatusFailed
)

var opStatusNames = [...]string{"pending", "sent", "confirmed", "failed"}

func (s OpStatus) String() string {
	if int(s) < len(opStatusNames) {
		return opStatusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// PersistedRecord is the durable form of a committed operation.
type PersistedRecord struct {
	Address  common.Address `json:"address"`
	Nonce    uint64         `json:"nonce"`
	Data     []byte         `json:"data"`
	Checksum common.Hash    `json:"checksum"`
	Status   OpStatus       `json:"status"`
}

// NewPersistedRecord serializes op and seals it with a checksum.
func NewPersistedRecord(meta SubmissionMeta, op Operation) (*PersistedRecord, error) {
	data, err := EncodeOperation(op)
	if err != nil {
		return nil, err
	}
	return &PersistedRecord{
		Address:  meta.Address,
		Nonce:    meta.Nonce,
		Data:     data,
		Checksum: checksum(data),
		Status:   OpStatusPending,
	}, nil
}

// Meta returns the submission metadata the record was created with.
func (r *PersistedRecord) Meta() SubmissionMeta {
	return SubmissionMeta{Address: r.Address, Nonce: r.Nonce}
}

// Operation verifies the checksum and decodes the stored operation.
func (r *PersistedRecord) Operation() (Operation, error) {
	if sum := checksum(r.Data); !bytes.Equal(sum[:], r.Checksum[:]) {
		return nil, fmt.Errorf("%w: checksum mismatch for %s", ErrCorruptRecord, r.Meta())
	}
	op, err := DecodeOperation(r.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, r.Meta(), err)
	}
	return op, nil
}

func checksum(data []byte) common.Hash {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(data)
	return common.BytesToHash(hasher.Sum(nil))
}
