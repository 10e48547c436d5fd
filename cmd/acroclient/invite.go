package main

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
)

func newInviteCmd() *cobra.Command {
	var playURL string

	cmd := &cobra.Command{
		Use:   "invite <room>",
		Short: "Print a QR code linking friends into a room.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link := fmt.Sprintf("%s/room/%s", playURL, args[0])

			qr, err := qrcode.New(link, qrcode.Medium)
			if err != nil {
				return fmt.Errorf("failed to build QR code: %w", err)
			}

			fmt.Println(link)
			fmt.Print(qr.ToSmallString(false))
			return nil
		},
	}

	cmd.Flags().StringVar(&playURL, "play-url", "https://acrophobia-play.onrender.com",
		"web client base URL embedded in the invite link")

	return cmd
}
