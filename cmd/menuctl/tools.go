package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/menuhub/menuhub/internal/auth"
	"github.com/menuhub/menuhub/internal/qrcode"
	"github.com/menuhub/menuhub/internal/slug"
	"github.com/menuhub/menuhub/internal/whatsapp"
)

func slugCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "slug <name> [city]",
		Short: "Prints a tenant slug with a random suffix",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), slug.Generate(args...))
			return nil
		},
	}
}

func waLinkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "walink <phone> [message]",
		Short: "Prints a wa.me link for a phone number",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var message string
			if len(args) == 2 {
				message = args[1]
			} else if restaurant, _ := cmd.Flags().GetString("restaurant"); restaurant != "" {
				message = whatsapp.ContactMessage(restaurant)
			}
			fmt.Fprintln(cmd.OutOrStdout(), whatsapp.Link(args[0], message))
			return nil
		},
	}
	cmd.Flags().String("restaurant", "", "pre-fill the contact greeting for this restaurant")
	return cmd
}

func qrCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qr <url> <out.png>",
		Short: "Renders a QR code PNG",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, _ := cmd.Flags().GetInt("size")
			if size < qrcode.MinSize {
				return fmt.Errorf("size must be at least %d", qrcode.MinSize)
			}
			png, err := qrcode.Render(args[0], size)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], png, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", args[1], len(png))
			return nil
		},
	}
	cmd.Flags().Int("size", 256, "image width and height in pixels")
	return cmd
}

func hashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Prints the bcrypt hash stored in users.password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
