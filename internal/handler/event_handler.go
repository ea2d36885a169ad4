package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"personal-calendar/internal/model"
)

func (h *Handler) ListEvents(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s, err := session(ctx)
	if err != nil {
		return nil, err
	}

	events, err := h.events.ListEvents(ctx, s.UserID)
	if err != nil {
		return nil, h.toStatus(err)
	}

	out := make([]any, len(events))
	for i := range events {
		out[i] = eventFields(&events[i])
	}
	return structpb.NewStruct(map[string]any{"events": out})
}

func (h *Handler) CreateEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s, err := session(ctx)
	if err != nil {
		return nil, err
	}

	in, err := model.EventInput{
		Title:      str(req, "title"),
		StartTime:  str(req, "start_time"),
		EndTime:    str(req, "end_time"),
		IsAllDay:   req.GetFields()["is_all_day"].GetBoolValue(),
		RepeatRule: str(req, "repeat_rule"),
		Category:   str(req, "category"),
		Notes:      str(req, "notes"),
	}.Normalize()
	if err != nil {
		return nil, h.toStatus(err)
	}

	id, err := h.events.CreateEvent(ctx, s.UserID, in)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return structpb.NewStruct(map[string]any{"id": float64(id)})
}

func (h *Handler) DeleteEvent(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	s, err := session(ctx)
	if err != nil {
		return nil, err
	}

	id := int64(req.GetFields()["id"].GetNumberValue())
	if id <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}

	// another user's event reads as missing
	if err := h.events.DeleteEvent(ctx, id, s.UserID); err != nil {
		return nil, h.toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func eventFields(e *model.Event) map[string]any {
	return map[string]any{
		"id":          float64(e.ID),
		"title":       e.Title,
		"start_time":  e.StartTime,
		"end_time":    e.EndTime,
		"is_all_day":  e.IsAllDay,
		"repeat_rule": e.RepeatRule,
		"category":    e.Category,
		"notes":       e.Notes,
		"is_reminded": e.IsReminded,
	}
}
