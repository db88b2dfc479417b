package utils

import (
	"crypto/ecdsa"
	"io/ioutil"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
)

func GetPrivateKeyFromKeystore(path string, password string) (*ecdsa.PrivateKey, error) {
	ksBytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	key, err := keystore.DecryptKey(ksBytes, password)
	if err != nil {
		return nil, err
	}
	return key.PrivateKey, nil
}

// GetAuthFromKeystore returns a transactor signing with the keystore key. gasLimit 0 lets
// the backend estimate gas per call.
func GetAuthFromKeystore(path string, password string, gasLimit uint64) (*bind.TransactOpts, error) {
	privateKey, err := GetPrivateKeyFromKeystore(path, password)
	if err != nil {
		return nil, err
	}
	auth := bind.NewKeyedTransactor(privateKey)
	auth.GasLimit = gasLimit
	return auth, nil
}
