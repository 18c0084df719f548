// ABOUTME: Entry point for the securevault CLI
// ABOUTME: Terminal client for the SecureVault password manager

package main

import (
	"fmt"
	"os"

	"github.com/buggiebug/Secure-Vault/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
