package client

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/team1306/purchase-tracker/internal/money"
	"github.com/team1306/purchase-tracker/internal/repository"
)

// SlackNotifier posts purchase request threads and event replies to a
// Slack channel. A nil API client disables it.
//
// All event logging is non-fatal: failures are logged and never
// propagated, so a dead chat integration never blocks a mutation.
type SlackNotifier struct {
	api       *slack.Client
	channelID string
	resolver  Resolver
	log       zerolog.Logger
}

// NewSlackNotifier creates a notifier. An empty token yields a disabled
// notifier. resolver may be nil; acting users are then named, not
// mentioned.
func NewSlackNotifier(token, channelID string, resolver Resolver, log zerolog.Logger) *SlackNotifier {
	var api *slack.Client
	if token != "" {
		api = slack.New(token)
	}
	return &SlackNotifier{api: api, channelID: channelID, resolver: resolver, log: log}
}

// PostRequestThread opens the notification thread for a new request and
// returns its message timestamp, which the caller persists as the
// request's thread handle.
func (n *SlackNotifier) PostRequestThread(ctx context.Context, req *repository.PurchaseRequest) (string, error) {
	if n.api == nil {
		return "", nil
	}

	text := fmt.Sprintf("New purchase request from %s: %s (%s, %s, total %s)",
		req.Requester, req.ItemDescription, req.Category, req.Tier(), money.Format(req.TotalCost()))

	_, ts, err := n.api.PostMessageContext(ctx, n.channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return "", err
	}
	return ts, nil
}

// LogEvent replies on a request's thread with a mutation event. When the
// request has no thread yet the event is posted to the channel directly.
func (n *SlackNotifier) LogEvent(ctx context.Context, threadID string, entry *repository.AuditEntry) {
	if n.api == nil {
		return
	}

	actor := entry.ActingUser
	if n.resolver != nil && actor != "" {
		if id, ok := n.resolver.Resolve(ctx, actor); ok {
			actor = fmt.Sprintf("<@%s>", id)
		}
	}

	text := fmt.Sprintf("%s by %s", entry.Kind, actor)
	if entry.ActingUser == "" {
		text = entry.Kind
	}
	if entry.Details != "" {
		text = fmt.Sprintf("%s: %s", text, entry.Details)
	}

	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadID != "" {
		opts = append(opts, slack.MsgOptionTS(threadID))
	}

	if _, _, err := n.api.PostMessageContext(ctx, n.channelID, opts...); err != nil {
		n.log.Warn().Err(err).
			Str("request_id", entry.RequestID).
			Str("kind", entry.Kind).
			Msg("notification: failed to post event (non-fatal)")
		return
	}

	n.log.Debug().
		Str("request_id", entry.RequestID).
		Str("kind", entry.Kind).
		Msg("notification: event posted")
}
