package zeempo

import (
	"context"

	"github.com/zeempo/zeempo-go/pkg/core/types"
)

// ChatsService wraps the persisted-session endpoints. All of them require
// a bearer credential.
type ChatsService struct {
	client *Client
}

type chatHistoryResponse struct {
	ID       string          `json:"id"`
	Messages []types.Message `json:"messages"`
}

// List fetches the session summaries, server-ordered.
func (s *ChatsService) List(ctx context.Context) ([]types.SessionSummary, error) {
	var out []types.SessionSummary
	if err := s.client.doGET(ctx, "/chats", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History fetches the full message history for one session.
func (s *ChatsService) History(ctx context.Context, id string) ([]types.Message, error) {
	var out chatHistoryResponse
	if err := s.client.doGET(ctx, "/chats/"+id, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// Delete removes a session from the remote store.
func (s *ChatsService) Delete(ctx context.Context, id string) error {
	return s.client.doDELETE(ctx, "/chats/"+id)
}
