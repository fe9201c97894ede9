// Package main is menuctl, the operator CLI for MenuHub. It covers the chores
// that do not belong behind the HTTP API: generating and using the secret
// encryption key, previewing slugs and WhatsApp links, rendering QR codes,
// hashing dashboard passwords and checking the database.
package main

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "menuctl",
		Short:         "MenuHub operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		keygenCommand(),
		encryptCommand(),
		decryptCommand(),
		isEncryptedCommand(),
		slugCommand(),
		waLinkCommand(),
		qrCommand(),
		hashPasswordCommand(),
		dbCheckCommand(),
	)
	return rootCmd
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: failed to load .env: %v", err)
	}

	if err := newRootCommand().Execute(); err != nil {
		log.Printf("error: %v", err)
		os.Exit(1)
	}
}
