package main

import (
	"fmt"
	"os"

	cl "github.com/aep/scopedb/client"
	"github.com/aep/scopedb/keygen"
	kv "github.com/aep/scopedb/kv/cmd"
	sr "github.com/aep/scopedb/server"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "scopedb",
	Short:        "Document store with scoped client authorization",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(sr.CMD)
	rootCmd.AddCommand(kv.CMD)
	rootCmd.AddCommand(cl.CMD)
	rootCmd.AddCommand(keygen.CMD)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
