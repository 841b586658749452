package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// AccountService is declared by hand over well-known message types, so the wire
// contract needs no generated code. Request and response fields are documented on
// each method of AccountServiceServer.
const AccountServiceName = "usersession.v1.AccountService"

// Full method names, as seen by interceptors.
const (
	AccountService_Register_FullMethodName      = "/" + AccountServiceName + "/Register"
	AccountService_Login_FullMethodName         = "/" + AccountServiceName + "/Login"
	AccountService_Logout_FullMethodName        = "/" + AccountServiceName + "/Logout"
	AccountService_Whoami_FullMethodName        = "/" + AccountServiceName + "/Whoami"
	AccountService_DeleteAccount_FullMethodName = "/" + AccountServiceName + "/DeleteAccount"
	AccountService_ListUsers_FullMethodName     = "/" + AccountServiceName + "/ListUsers"
)

// AccountServiceServer is the server API for AccountService.
type AccountServiceServer interface {
	// Register takes {username, password}.
	Register(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	// Login takes {username, password} and returns {session_token, username, is_admin}.
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	// Whoami returns {id, username, is_admin, last_login_at}.
	Whoami(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// DeleteAccount takes {username}; an empty username deletes the caller.
	DeleteAccount(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	// ListUsers takes {limit, offset} and returns {users: [{id, username, is_admin}]}.
	ListUsers(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAccountServiceServer registers srv on s.
func RegisterAccountServiceServer(s grpc.ServiceRegistrar, srv AccountServiceServer) {
	s.RegisterService(&AccountService_ServiceDesc, srv)
}

// AccountService_ServiceDesc is the grpc.ServiceDesc for AccountService.
var AccountService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AccountServiceName,
	HandlerType: (*AccountServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(AccountService_Register_FullMethodName, AccountServiceServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(AccountService_Login_FullMethodName, AccountServiceServer.Login)},
		{MethodName: "Logout", Handler: unaryHandler(AccountService_Logout_FullMethodName, AccountServiceServer.Logout)},
		{MethodName: "Whoami", Handler: unaryHandler(AccountService_Whoami_FullMethodName, AccountServiceServer.Whoami)},
		{MethodName: "DeleteAccount", Handler: unaryHandler(AccountService_DeleteAccount_FullMethodName, AccountServiceServer.DeleteAccount)},
		{MethodName: "ListUsers", Handler: unaryHandler(AccountService_ListUsers_FullMethodName, AccountServiceServer.ListUsers)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "usersession/v1/account.proto",
}

func unaryHandler[Req, Resp any](fullMethod string, call func(AccountServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AccountServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AccountServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AccountServiceClient is the client API for AccountService.
type AccountServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAccountServiceClient(cc grpc.ClientConnInterface) *AccountServiceClient {
	return &AccountServiceClient{cc: cc}
}

func (c *AccountServiceClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	return out, c.cc.Invoke(ctx, AccountService_Register_FullMethodName, in, out, opts...)
}

func (c *AccountServiceClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	return out, c.cc.Invoke(ctx, AccountService_Login_FullMethodName, in, out, opts...)
}

func (c *AccountServiceClient) Logout(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	return out, c.cc.Invoke(ctx, AccountService_Logout_FullMethodName, in, out, opts...)
}

func (c *AccountServiceClient) Whoami(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	return out, c.cc.Invoke(ctx, AccountService_Whoami_FullMethodName, in, out, opts...)
}

func (c *AccountServiceClient) DeleteAccount(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	return out, c.cc.Invoke(ctx, AccountService_DeleteAccount_FullMethodName, in, out, opts...)
}

func (c *AccountServiceClient) ListUsers(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	return out, c.cc.Invoke(ctx, AccountService_ListUsers_FullMethodName, in, out, opts...)
}
