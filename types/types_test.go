package types

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProof() Proof {
	var proof Proof
	for i := range proof {
		proof[i] = big.NewInt(int64(i + 1))
	}
	return proof
}

func testAccounts(ids ...AccountID) AccountMap {
	m := make(AccountMap)
	for _, id := range ids {
		m[id] = &Account{Balance: big.NewInt(int64(id) * 10), Nonce: uint32(id)}
	}
	return m
}

func TestSortedIDs(t *testing.T) {
	assert.Equal(t, []AccountID{1, 4, 9, 30}, testAccounts(30, 4, 9, 1).SortedIDs())
	assert.Empty(t, AccountMap{}.SortedIDs())
}

func TestOperationCodec(t *testing.T) {
	root := common.HexToHash("0x1234")
	ops := []Operation{
		&CommitOperation{BlockNumber: 5, NewRoot: root, BlockData: &TransferBlock{TotalFees: big.NewInt(100), PublicData: []byte{0xde, 0xad}}},
		&CommitOperation{BlockNumber: 6, NewRoot: root, BlockData: &DepositBlock{BatchNumber: 2, AccountsUpdated: testAccounts(7, 3)}},
		&VerifyOperation{BlockNumber: 7, Proof: testProof(), BlockData: &ExitBlock{BatchNumber: 1, AccountsUpdated: testAccounts(2)}},
	}
	for _, op := range ops {
		t.Run(Describe(op), func(t *testing.T) {
			data, err := EncodeOperation(op)
			require.NoError(t, err)
			decoded, err := DecodeOperation(data)
			require.NoError(t, err)
			assert.Equal(t, op, decoded)
		})
	}
}

func TestEncodingIsCanonical(t *testing.T) {
	a := &CommitOperation{BlockNumber: 1, BlockData: &DepositBlock{BatchNumber: 1, AccountsUpdated: testAccounts(1, 2, 3, 4, 5, 6)}}
	b := &CommitOperation{BlockNumber: 1, BlockData: &DepositBlock{BatchNumber: 1, AccountsUpdated: testAccounts(6, 5, 4, 3, 2, 1)}}

	encodedA, err := EncodeOperation(a)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		encodedB, err := EncodeOperation(b)
		require.NoError(t, err)
		assert.Equal(t, encodedA, encodedB)
	}
}

func TestDecodeUnknownVariant(t *testing.T) {
	_, err := DecodeOperation([]byte(`{"action":"commit","kind":"swap","blockNumber":1,"newRoot":"0x0000000000000000000000000000000000000000000000000000000000000000"}`))
	assert.True(t, errors.Is(err, ErrUnsupportedVariant))

	_, err = DecodeOperation([]byte(`{"action":"revert","kind":"exit","blockNumber":1}`))
	assert.True(t, errors.Is(err, ErrUnsupportedVariant))

	_, err = DecodeOperation([]byte(`{"action":"commit","kind":"exit","blockNumber":1}`))
	assert.Error(t, err)
}

type foreignData struct{}

func (*foreignData) Kind() BlockKind { return "foreign" }
func (*foreignData) isBlockData()    {}

func TestEncodeUnsupportedBlockData(t *testing.T) {
	_, err := EncodeOperation(&CommitOperation{BlockNumber: 1, BlockData: &foreignData{}})
	assert.True(t, errors.Is(err, ErrUnsupportedVariant))
}

func TestPersistedRecord(t *testing.T) {
	meta := SubmissionMeta{Address: common.HexToAddress("0xe5d0efb4756bd5cdd4b5140d3d2e08ca7e6cf644"), Nonce: 10}
	op := &VerifyOperation{BlockNumber: 3, Proof: testProof(), BlockData: &TransferBlock{TotalFees: big.NewInt(42)}}

	record, err := NewPersistedRecord(meta, op)
	require.NoError(t, err)
	assert.Equal(t, OpStatusPending, record.Status)
	assert.Equal(t, meta, record.Meta())

	decoded, err := record.Operation()
	require.NoError(t, err)
	assert.Equal(t, op, decoded)

	record.Data[len(record.Data)-1] ^= 0xff
	_, err = record.Operation()
	assert.True(t, errors.Is(err, ErrCorruptRecord))
}

func TestOpStatusString(t *testing.T) {
	assert.Equal(t, "pending", OpStatusPending.String())
	assert.Equal(t, "failed", OpStatusFailed.String())
	assert.Equal(t, "status(9)", OpStatus(9).String())
}
