package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"soulbound.backend/internal/config"
	"soulbound.backend/pkg/crypto"
)

var (
	randomHex   = crypto.GenerateRandomToken
	generateKey = ethcrypto.GenerateKey
)

type generatedSecrets struct {
	WalletEncryptionKey string
	MinterPrivateKey    string
	MinterAddress       string
}

func buildSecrets(withMinter bool) (*generatedSecrets, error) {
	walletKey, err := randomHex(config.WalletEncryptionKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate wallet encryption key: %w", err)
	}
	out := &generatedSecrets{WalletEncryptionKey: walletKey}
	if !withMinter {
		return out, nil
	}

	key, err := generateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate minter key: %w", err)
	}
	out.MinterPrivateKey = hexutil.Encode(ethcrypto.FromECDSA(key))
	out.MinterAddress = ethcrypto.PubkeyToAddress(key.PublicKey).Hex()
	return out, nil
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	withMinter := fs.Bool("minter", false, "also generate a minter signing key")
	if err := fs.Parse(args); err != nil {
		return err
	}

	secrets, err := buildSecrets(*withMinter)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "Generated secrets")
	_, _ = fmt.Fprintf(out, "WALLET_ENCRYPTION_KEY=%s\n", secrets.WalletEncryptionKey)
	if secrets.MinterPrivateKey != "" {
		_, _ = fmt.Fprintf(out, "MINTER_PRIVATE_KEY=%s\n", secrets.MinterPrivateKey)
		_, _ = fmt.Fprintf(out, "# minter address (fund it and grant the minter role): %s\n", secrets.MinterAddress)
	}
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}
