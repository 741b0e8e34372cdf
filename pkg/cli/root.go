// Package cli exposes the httpcopy command tree for embedding.
package cli

import (
	internalcli "github.com/SmitUplenchwar2687/httpcopy/internal/cli"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the public httpcopy root command for embedding.
func NewRootCmd() *cobra.Command {
	return internalcli.NewRootCmd()
}
