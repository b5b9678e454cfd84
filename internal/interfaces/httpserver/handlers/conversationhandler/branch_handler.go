package conversationhandler

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"jan-server/services/conversation-api/internal/domain/conversation"
	"jan-server/services/conversation-api/internal/infrastructure/metrics"
	"jan-server/services/conversation-api/internal/infrastructure/observability"
	conversationrequests "jan-server/services/conversation-api/internal/interfaces/httpserver/requests/conversation"
	conversationresponses "jan-server/services/conversation-api/internal/interfaces/httpserver/responses/conversation"
	"jan-server/services/conversation-api/internal/utils/platformerrors"
)

// BranchHandler serves reads and writes of the message tree
type BranchHandler struct {
	conversationService *conversation.ConversationService
}

func NewBranchHandler(conversationService *conversation.ConversationService) *BranchHandler {
	return &BranchHandler{
		conversationService: conversationService,
	}
}

// GetTranscript resolves the active branch from the current node
func (h *BranchHandler) GetTranscript(
	ctx context.Context,
	conv *conversation.Conversation,
	params conversationrequests.TranscriptQueryParams,
) (*conversationresponses.TranscriptResponse, error) {
	ctx, span := observability.StartSpan(ctx, "conversation.transcript")
	defer span.End()

	view, err := h.conversationService.GetTranscript(ctx, conv)
	metrics.RecordOperation("get_transcript", err)
	if err != nil {
		observability.RecordError(ctx, err)
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to resolve transcript")
	}

	metrics.ObserveTranscriptLength(len(view.Transcript))
	observability.AddSpanAttributes(ctx,
		attribute.String("conversation.id", conv.PublicID),
		attribute.Int("transcript.length", len(view.Transcript)),
	)
	return conversationresponses.NewTranscriptResponse(view, params.IncludeInternal), nil
}

// GetTree returns every node of the conversation with parent and child links
func (h *BranchHandler) GetTree(
	ctx context.Context,
	conv *conversation.Conversation,
) (*conversationresponses.TreeResponse, error) {
	tree, err := h.conversationService.GetTree(ctx, conv)
	metrics.RecordOperation("get_tree", err)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to load tree")
	}
	return conversationresponses.NewTreeResponse(conv, tree), nil
}

// AppendMessage places a message in the tree according to its role and edit target
func (h *BranchHandler) AppendMessage(
	ctx context.Context,
	conv *conversation.Conversation,
	userID string,
	req conversationrequests.AppendMessageRequest,
) (*conversationresponses.AppendMessageResponse, error) {
	ctx, span := observability.StartSpan(ctx, "conversation.append_message")
	defer span.End()

	result, err := h.conversationService.AppendMessage(ctx, conv, req.ToInput(userID))
	metrics.RecordOperation("append_message", err)
	if err != nil {
		observability.RecordError(ctx, err)
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to append message")
	}

	msg := result.Message
	observability.AddSpanAttributes(ctx,
		attribute.String("conversation.id", conv.PublicID),
		attribute.String("message.role", string(msg.Role)),
		attribute.Bool("message.regenerate", req.Regenerate),
	)

	tree := result.Tree
	node, ok := tree.NodeByPublicID(msg.PublicID)
	if !ok {
		node = &conversation.Node{Message: msg}
	}

	resp := &conversationresponses.AppendMessageResponse{
		Message: conversationresponses.NewMessageResponse(tree, node),
	}
	if cur := result.Conversation.CurrentNodeID; cur != nil {
		if id := tree.PublicIDOf(cur); id != "" {
			resp.CurrentNode = &id
		}
	}
	return resp, nil
}

// SwitchBranch points the conversation at another node and returns the new transcript
func (h *BranchHandler) SwitchBranch(
	ctx context.Context,
	conv *conversation.Conversation,
	userID string,
	req conversationrequests.MessageRefRequest,
) (*conversationresponses.TranscriptResponse, error) {
	view, err := h.conversationService.SwitchBranch(ctx, conv, userID, req.MessageID)
	metrics.RecordOperation("switch_branch", err)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to switch branch")
	}
	metrics.ObserveTranscriptLength(len(view.Transcript))
	return conversationresponses.NewTranscriptResponse(view, false), nil
}

// EditMessage rewrites the content of a node in place
func (h *BranchHandler) EditMessage(
	ctx context.Context,
	conv *conversation.Conversation,
	userID string,
	messageID string,
	req conversationrequests.EditMessageRequest,
) (*conversationresponses.MessageResponse, error) {
	msg, err := h.conversationService.EditMessageContent(ctx, conv, userID, messageID, req.Content)
	metrics.RecordOperation("edit_message", err)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to edit message")
	}

	tree, err := h.conversationService.GetTree(ctx, conv)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to load tree")
	}
	node, ok := tree.NodeByPublicID(msg.PublicID)
	if !ok {
		node = &conversation.Node{Message: msg}
	}
	resp := conversationresponses.NewMessageResponse(tree, node)
	return &resp, nil
}

// Rewind deletes everything below the target message and moves the pointer onto it
func (h *BranchHandler) Rewind(
	ctx context.Context,
	conv *conversation.Conversation,
	userID string,
	req conversationrequests.MessageRefRequest,
) (*conversationresponses.RewindResponse, error) {
	ctx, span := observability.StartSpan(ctx, "conversation.rewind")
	defer span.End()

	result, err := h.conversationService.Rewind(ctx, conv, userID, req.MessageID)
	metrics.RecordOperation("rewind", err)
	if err != nil {
		observability.RecordError(ctx, err)
		return nil, platformerrors.AsError(ctx, platformerrors.LayerHandler, err, "failed to rewind conversation")
	}

	metrics.AddPrunedMessages(result.DeletedCount)
	observability.AddSpanAttributes(ctx, attribute.Int64("rewind.deleted", result.DeletedCount))
	return conversationresponses.NewRewindResponse(result), nil
}
