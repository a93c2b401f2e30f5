package grpc

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the Ledger service, attaching the API token to every call
type Client struct {
	conn  grpclib.ClientConnInterface
	token string
}

// NewClient wraps an established connection
func NewClient(conn grpclib.ClientConnInterface, token string) *Client {
	return &Client{conn: conn, token: token}
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", c.token)
}

// GetSummary returns the portfolio summary
func (c *Client) GetSummary(ctx context.Context) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), fullMethod("GetSummary"), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListHoldings returns every holding
func (c *Client) ListHoldings(ctx context.Context) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), fullMethod("ListHoldings"), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Sell settles a sale described by holding_id, quantity, sell_price and notes
func (c *Client) Sell(ctx context.Context, req map[string]interface{}) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(c.outgoing(ctx), fullMethod("Sell"), in, out); err != nil {
		return nil, err
	}
	return out, nil
}
