package grpcjson

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type echoRequest struct {
	Text string `json:"text"`
}

type echoResponse struct {
	Text   string `json:"text"`
	Length int    `json:"length"`
}

func dial(t *testing.T, svc *Service, opts ...grpc.ServerOption) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(opts...)
	svc.Register(server)
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestUnaryRoundTrip(t *testing.T) {
	svc := NewService("test.Echo")
	Unary(svc, "Echo", func(ctx context.Context, req *echoRequest) (*echoResponse, error) {
		if req.Text == "" {
			return nil, status.Error(codes.InvalidArgument, "empty")
		}
		return &echoResponse{Text: req.Text, Length: len(req.Text)}, nil
	})

	var seen string
	conn := dial(t, svc, grpc.UnaryInterceptor(func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod
		return handler(ctx, req)
	}))

	resp, err := Invoke[echoRequest, echoResponse](context.Background(), conn, "test.Echo", "Echo", &echoRequest{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, 5, resp.Length)
	assert.Equal(t, "/test.Echo/Echo", seen)

	_, err = Invoke[echoRequest, echoResponse](context.Background(), conn, "test.Echo", "Echo", &echoRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
