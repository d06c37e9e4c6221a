package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fortressi/transact"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Timeout int
}

// createOutput is the JSON document printed for a newly created transaction.
type createOutput struct {
	TransactionID  string `json:"transactionId"`
	State          string `json:"state"`
	CreatedAt      string `json:"createdAt"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new pending transaction",
		Long: `Create a new pending transaction and persist it to the state file.

Example:
  transact create --timeout 120`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Timeout, "timeout", transact.DefaultTimeoutSeconds, "transaction timeout in seconds")

	return cmd
}

func runCreate(cmd *cobra.Command, opts *CreateOptions) error {
	ctx := cmd.Context()

	statePath, err := resolveStateFile(opts.StateFile, opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to resolve state file", err)
	}

	manager, store, err := loadManager(ctx, statePath, opts.Logger)
	if err != nil {
		return err
	}

	timeout := opts.Timeout
	if !cmd.Flags().Changed("timeout") && opts.Config.DefaultTimeout > 0 {
		timeout = opts.Config.DefaultTimeout
	}

	id := manager.Begin(timeout)
	tx, ok := manager.GetTransaction(id)
	if !ok {
		return NewExitError(ExitCommandError, "created transaction missing from registry")
	}

	if err := saveManager(ctx, manager, store); err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), createOutput{
		TransactionID:  tx.TransactionID,
		State:          tx.State.String(),
		CreatedAt:      tx.CreatedAt.Format(time.RFC3339),
		TimeoutSeconds: tx.TimeoutSeconds,
	})
}
