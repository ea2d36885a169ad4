package handler

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"personal-calendar/internal/auth"
)

// Login takes {username, password, email?} and returns a bearer token.
// An unknown username with an email registers the account.
func (h *Handler) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	u, err := h.accounts.Login(ctx, str(req, "username"), str(req, "email"), str(req, "password"))
	if err != nil {
		return nil, h.toStatus(err)
	}

	tok, err := auth.MakeToken(u.ID, u.Username, h.secret, h.ttl)
	if err != nil {
		h.log.Error("sign token", zap.Error(err))
		return nil, status.Error(codes.Internal, "internal error")
	}

	return structpb.NewStruct(map[string]any{
		"token":    tok,
		"user_id":  float64(u.ID),
		"username": u.Username,
	})
}
