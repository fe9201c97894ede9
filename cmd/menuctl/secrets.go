package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/menuhub/menuhub/internal/crypto"
)

// keyEnv is read when --key is not given, matching the server.
const keyEnv = "ENCRYPTION_KEY"

var errNoKey = errors.New("no encryption key: pass --key or set " + keyEnv)

func addKeyFlag(cmd *cobra.Command) {
	cmd.Flags().String("key", "", "encryption passphrase (default $"+keyEnv+")")
}

func cipherFromFlags(cmd *cobra.Command) (*crypto.SecretCipher, error) {
	key, _ := cmd.Flags().GetString("key")
	if key == "" {
		key = os.Getenv(keyEnv)
	}
	if key == "" {
		return nil, errNoKey
	}
	return crypto.NewSecretCipher(key, true)
}

func keygenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generates a random value for ENCRYPTION_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func encryptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt <plaintext>",
		Short: "Encrypts a value the way integration secrets are stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cipherFromFlags(cmd)
			if err != nil {
				return err
			}
			out, err := c.Encrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	addKeyFlag(cmd)
	return cmd
}

func decryptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt <ciphertext>",
		Short: "Decrypts a stored integration secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := cipherFromFlags(cmd)
			if err != nil {
				return err
			}
			out, err := c.Decrypt(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	addKeyFlag(cmd)
	return cmd
}

func isEncryptedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "is-encrypted <value>",
		Short: "Reports whether a value has the encrypted storage format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), crypto.IsEncrypted(args[0]))
			return nil
		},
	}
}
