package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript <conversation_id>",
	Short: "Print the active branch of a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runTranscript,
}

var treeCmd = &cobra.Command{
	Use:   "tree <conversation_id>",
	Short: "Print every node of a conversation with its links",
	Args:  cobra.ExactArgs(1),
	RunE:  runTree,
}

var rewindCmd = &cobra.Command{
	Use:   "rewind <conversation_id> <message_id>",
	Short: "Delete everything below a message and make it current",
	Long: `Delete every descendant of the message, on all branches, and point the
conversation at it. The deletion cannot be undone.`,
	Args: cobra.ExactArgs(2),
	RunE: runRewind,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair dangling and unsettled current-node pointers once",
	Args:  cobra.NoArgs,
	RunE:  runReconcile,
}

func init() {
	transcriptCmd.Flags().String("format", "yaml", "Output format: yaml, json")
	transcriptCmd.Flags().Bool("include-internal", false, "Include internal messages")

	treeCmd.Flags().String("format", "yaml", "Output format: yaml, json")

	rewindCmd.Flags().String("as", "", "Act as this user (default: the conversation owner)")
	rewindCmd.Flags().Bool("yes", false, "Skip the confirmation guard")

	reconcileCmd.Flags().Int("batch", 200, "Maximum conversations to repair per kind")
}

func runTranscript(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	includeInternal, _ := cmd.Flags().GetBool("include-internal")

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	conv, err := svc.GetConversationByPublicID(ctx, args[0])
	if err != nil {
		return err
	}
	view, err := svc.ResolveTranscript(ctx, conv)
	if err != nil {
		return err
	}
	if view.PointerChanged {
		if err := svc.PersistPointer(ctx, conv, view.Conversation.CurrentNodeID); err != nil {
			return err
		}
	}
	return writeOutput(cmd.OutOrStdout(), format, newTranscriptDoc(view, includeInternal))
}

func runTree(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	conv, err := svc.GetConversationByPublicID(ctx, args[0])
	if err != nil {
		return err
	}
	tree, err := svc.GetTree(ctx, conv)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), format, newTreeDoc(conv, tree))
}

func runRewind(cmd *cobra.Command, args []string) error {
	actor, _ := cmd.Flags().GetString("as")
	confirmed, _ := cmd.Flags().GetBool("yes")
	if !confirmed {
		return fmt.Errorf("rewind deletes messages permanently; pass --yes to proceed")
	}

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	ctx := cmd.Context()
	conv, err := svc.GetConversationByPublicID(ctx, args[0])
	if err != nil {
		return err
	}
	if actor == "" {
		actor = conv.OwnerID
	}
	result, err := svc.Rewind(ctx, conv, actor, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "rewound %s to %s, deleted %d message(s)\n",
		conv.PublicID, result.Target.PublicID, result.DeletedCount)
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	batch, _ := cmd.Flags().GetInt("batch")
	if batch <= 0 {
		return fmt.Errorf("--batch must be positive")
	}

	svc, closeFn, err := openService(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := svc.ReconcilePointers(cmd.Context(), batch)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dangling cleared: %d, settled: %d, failed: %d\n",
		result.DanglingCleared, result.Settled, result.Failed)
	return nil
}
