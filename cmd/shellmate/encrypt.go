package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"shellmate/internal/infra/config"
)

// runEncrypt prints the sealed form of a secret for use as llm.api_key.
func runEncrypt(args []string, out io.Writer) error {
	if len(args) != 1 || args[0] == "" {
		return errors.New("usage: shellmate encrypt <value>")
	}
	passphrase := os.Getenv(config.PassphraseEnv)
	if passphrase == "" {
		return config.ErrNoPassphrase
	}

	sealed, err := config.SealSecret(args[0], passphrase)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, sealed)
	return nil
}
