// Package grpcjson serves gRPC services whose messages are plain Go structs
// encoded as JSON, so no generated stubs are required.
package grpcjson

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// Name is the content-subtype clients must request: application/grpc+json.
const Name = "json"

type codec struct{}

func (codec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (codec) Name() string                       { return Name }

func init() {
	encoding.RegisterCodec(codec{})
}

type Service struct {
	desc grpc.ServiceDesc
}

func NewService(name string) *Service {
	return &Service{desc: grpc.ServiceDesc{
		ServiceName: name,
		HandlerType: (*any)(nil),
		Streams:     []grpc.StreamDesc{},
	}}
}

// Unary registers a typed unary method on s.
func Unary[Req, Resp any](s *Service, method string, call func(context.Context, *Req) (*Resp, error)) {
	fullMethod := "/" + s.desc.ServiceName + "/" + method
	s.desc.Methods = append(s.desc.Methods, grpc.MethodDesc{
		MethodName: method,
		Handler: func(_ any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: s, FullMethod: fullMethod}
			return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
				return call(ctx, r.(*Req))
			})
		},
	})
}

func (s *Service) Name() string { return s.desc.ServiceName }

// Register adds the service to server.
func (s *Service) Register(server grpc.ServiceRegistrar) {
	server.RegisterService(&s.desc, s)
}

// Invoke calls a JSON-encoded unary method. Used by clients and tests.
func Invoke[Req, Resp any](ctx context.Context, conn grpc.ClientConnInterface, service, method string, req *Req, opts ...grpc.CallOption) (*Resp, error) {
	resp := new(Resp)
	opts = append(opts, grpc.CallContentSubtype(Name))
	if err := conn.Invoke(ctx, "/"+service+"/"+method, req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}
