package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sergw-project/sergw/internal/serialio"
)

var (
	portsAll     bool
	portsVerbose bool
	portsFormat  string
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List available serial ports",
	RunE:  runPorts,
}

func init() {
	portsCmd.Flags().BoolVar(&portsAll, "all", false, "include non-USB ports")
	portsCmd.Flags().BoolVar(&portsVerbose, "verbose", false, "include USB vendor/product metadata")
	portsCmd.Flags().StringVar(&portsFormat, "format", "text", "output format: text|json")
	rootCmd.AddCommand(portsCmd)
}

func runPorts(cmd *cobra.Command, args []string) error {
	ports, err := serialio.ListPorts(portsAll)
	if err != nil {
		return err
	}

	switch portsFormat {
	case "json":
		return printPortsJSON(ports)
	default:
		printPortsText(ports)
		return nil
	}
}

func printPortsJSON(ports []serialio.PortInfo) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(ports)
}

func printPortsText(ports []serialio.PortInfo) {
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if portsVerbose {
		fmt.Fprintln(w, "NAME\tUSB\tVID\tPID\tMANUFACTURER\tPRODUCT")
		for _, p := range ports {
			fmt.Fprintf(w, "%s\t%v\t%s\t%s\t%s\t%s\n", p.Name, p.IsUSB, p.VID, p.PID, p.Manufacturer, p.Product)
		}
	} else {
		fmt.Fprintln(w, "NAME\tUSB")
		for _, p := range ports {
			fmt.Fprintf(w, "%s\t%v\n", p.Name, p.IsUSB)
		}
	}
	w.Flush()
}
