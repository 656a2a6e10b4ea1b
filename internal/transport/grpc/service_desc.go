package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "chat.v1.ChatApi"

type ChatApiServer interface {
	StartConversation(context.Context, *StartConversationRequest) (*ConversationResponse, error)
	AddParticipants(context.Context, *ParticipantsRequest) (*Empty, error)
	RemoveParticipants(context.Context, *ParticipantsRequest) (*Empty, error)
	CommonConversations(context.Context, *CommonConversationsRequest) (*CommonConversationsResponse, error)
	ListConversations(context.Context, *ListConversationsRequest) (*ListConversationsResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	MarkRead(context.Context, *MessageRequest) (*Empty, error)
	TrashMessage(context.Context, *MessageRequest) (*Empty, error)
	ToggleFlag(context.Context, *MessageRequest) (*ToggleFlagResponse, error)
	UnreadCount(context.Context, *UnreadCountRequest) (*UnreadCountResponse, error)
	ReadAll(context.Context, *ConversationRequest) (*AffectedResponse, error)
	ClearConversation(context.Context, *ConversationRequest) (*AffectedResponse, error)
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
}

// ChatApiServiceDesc describes the service for grpc.Server.RegisterService.
var ChatApiServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatApiServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("StartConversation", ChatApiServer.StartConversation),
		unary("AddParticipants", ChatApiServer.AddParticipants),
		unary("RemoveParticipants", ChatApiServer.RemoveParticipants),
		unary("CommonConversations", ChatApiServer.CommonConversations),
		unary("ListConversations", ChatApiServer.ListConversations),
		unary("SendMessage", ChatApiServer.SendMessage),
		unary("MarkRead", ChatApiServer.MarkRead),
		unary("TrashMessage", ChatApiServer.TrashMessage),
		unary("ToggleFlag", ChatApiServer.ToggleFlag),
		unary("UnreadCount", ChatApiServer.UnreadCount),
		unary("ReadAll", ChatApiServer.ReadAll),
		unary("ClearConversation", ChatApiServer.ClearConversation),
		unary("ListMessages", ChatApiServer.ListMessages),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chat/v1/chat.proto",
}

func RegisterChatApiServer(s grpc.ServiceRegistrar, srv ChatApiServer) {
	s.RegisterService(&ChatApiServiceDesc, srv)
}

func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req, Resp any](
	method string,
	call func(ChatApiServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ChatApiServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(method),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ChatApiServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ChatApiClient calls ChatApi over a connection using the JSON codec.
type ChatApiClient struct {
	cc grpc.ClientConnInterface
}

func NewChatApiClient(cc grpc.ClientConnInterface) *ChatApiClient {
	return &ChatApiClient{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, c *ChatApiClient, method string, in *Req, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ChatApiClient) StartConversation(ctx context.Context, in *StartConversationRequest, opts ...grpc.CallOption) (*ConversationResponse, error) {
	return invoke[StartConversationRequest, ConversationResponse](ctx, c, "StartConversation", in, opts...)
}

func (c *ChatApiClient) AddParticipants(ctx context.Context, in *ParticipantsRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[ParticipantsRequest, Empty](ctx, c, "AddParticipants", in, opts...)
}

func (c *ChatApiClient) RemoveParticipants(ctx context.Context, in *ParticipantsRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[ParticipantsRequest, Empty](ctx, c, "RemoveParticipants", in, opts...)
}

func (c *ChatApiClient) CommonConversations(ctx context.Context, in *CommonConversationsRequest, opts ...grpc.CallOption) (*CommonConversationsResponse, error) {
	return invoke[CommonConversationsRequest, CommonConversationsResponse](ctx, c, "CommonConversations", in, opts...)
}

func (c *ChatApiClient) ListConversations(ctx context.Context, in *ListConversationsRequest, opts ...grpc.CallOption) (*ListConversationsResponse, error) {
	return invoke[ListConversationsRequest, ListConversationsResponse](ctx, c, "ListConversations", in, opts...)
}

func (c *ChatApiClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageRequest, SendMessageResponse](ctx, c, "SendMessage", in, opts...)
}

func (c *ChatApiClient) MarkRead(ctx context.Context, in *MessageRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[MessageRequest, Empty](ctx, c, "MarkRead", in, opts...)
}

func (c *ChatApiClient) TrashMessage(ctx context.Context, in *MessageRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[MessageRequest, Empty](ctx, c, "TrashMessage", in, opts...)
}

func (c *ChatApiClient) ToggleFlag(ctx context.Context, in *MessageRequest, opts ...grpc.CallOption) (*ToggleFlagResponse, error) {
	return invoke[MessageRequest, ToggleFlagResponse](ctx, c, "ToggleFlag", in, opts...)
}

func (c *ChatApiClient) UnreadCount(ctx context.Context, in *UnreadCountRequest, opts ...grpc.CallOption) (*UnreadCountResponse, error) {
	return invoke[UnreadCountRequest, UnreadCountResponse](ctx, c, "UnreadCount", in, opts...)
}

func (c *ChatApiClient) ReadAll(ctx context.Context, in *ConversationRequest, opts ...grpc.CallOption) (*AffectedResponse, error) {
	return invoke[ConversationRequest, AffectedResponse](ctx, c, "ReadAll", in, opts...)
}

func (c *ChatApiClient) ClearConversation(ctx context.Context, in *ConversationRequest, opts ...grpc.CallOption) (*AffectedResponse, error) {
	return invoke[ConversationRequest, AffectedResponse](ctx, c, "ClearConversation", in, opts...)
}

func (c *ChatApiClient) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error) {
	return invoke[ListMessagesRequest, ListMessagesResponse](ctx, c, "ListMessages", in, opts...)
}
