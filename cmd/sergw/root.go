package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sergw",
	Short: "Bridge a serial device to concurrent TCP clients",
	Long: `sergw opens a local serial device and a TCP listener, then fuses the
two sides into a byte-transparent bidirectional pipe: bytes read from the
device are broadcast to every connected TCP client, and bytes from any
client are written to the device in arrival order.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

func init() {
	rootCmd.SilenceUsage = true
}
