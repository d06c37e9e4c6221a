package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fortressi/transact"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	TxID string
}

// statusOutput is the JSON document printed for an existing transaction.
type statusOutput struct {
	TransactionID  string `json:"transactionId"`
	State          string `json:"state"`
	Steps          int    `json:"steps"`
	CreatedAt      string `json:"createdAt"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of a transaction",
		Long: `Look up a transaction in the state file and print its status.

Example:
  transact status --tx-id 4f7c2d9e-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.TxID, "tx-id", "", "transaction ID to look up")
	_ = cmd.MarkFlagRequired("tx-id")

	return cmd
}

func runStatus(cmd *cobra.Command, opts *StatusOptions) error {
	ctx := cmd.Context()

	statePath, err := resolveStateFile(opts.StateFile, opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve state file", err)
	}

	manager, _, err := loadManager(ctx, statePath, opts.Logger)
	if err != nil {
		return err
	}

	tx, ok := manager.GetTransaction(transact.TxID(opts.TxID))
	if !ok {
		return NewExitError(ExitFailure, fmt.Sprintf("transaction %s not found", opts.TxID))
	}

	return writeJSON(cmd.OutOrStdout(), statusOutput{
		TransactionID:  tx.TransactionID,
		State:          tx.State.String(),
		Steps:          len(tx.Steps),
		CreatedAt:      tx.CreatedAt.Format(time.RFC3339),
		TimeoutSeconds: tx.TimeoutSeconds,
	})
}
