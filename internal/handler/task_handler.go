package handler

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"personal-calendar/internal/tasksplit"
)

func (h *Handler) SplitTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := session(ctx); err != nil {
		return nil, err
	}

	task := strings.TrimSpace(str(req, "task"))
	if task == "" {
		return nil, status.Error(codes.InvalidArgument, "task required")
	}

	steps, err := h.splitter.Split(ctx, task, str(req, "lang"))
	if err != nil {
		return nil, h.toStatus(err)
	}

	out := make([]any, len(steps))
	for i, s := range steps {
		out[i] = s
	}
	return structpb.NewStruct(map[string]any{"steps": out})
}

// SaveSubtasks stores each step as its own event. Steps are written one at
// a time; on failure the status carries the count already saved.
func (h *Handler) SaveSubtasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s, err := session(ctx)
	if err != nil {
		return nil, err
	}

	mainTask := strings.TrimSpace(str(req, "main_task"))
	steps := strs(req, "steps")
	if mainTask == "" || len(steps) == 0 {
		return nil, status.Error(codes.InvalidArgument, "main_task and steps required")
	}

	count := 0
	for _, in := range tasksplit.SubtaskInputs(mainTask, steps, h.now()) {
		in, err := in.Normalize()
		if err == nil {
			_, err = h.events.CreateEvent(ctx, s.UserID, in)
		}
		if err != nil {
			h.log.Warn("save subtasks stopped", zap.Int("saved", count), zap.Error(err))
			return nil, withSaved(h.toStatus(err), count)
		}
		count++
	}
	return structpb.NewStruct(map[string]any{"count": float64(count)})
}

// withSaved adds the number of events written before err to its status,
// in the message and as a {count} detail.
func withSaved(err error, saved int) error {
	st := status.Convert(err)
	st = status.New(st.Code(), fmt.Sprintf("%s (saved %d)", st.Message(), saved))
	detail, derr := structpb.NewStruct(map[string]any{"count": float64(saved)})
	if derr != nil {
		return st.Err()
	}
	if d, derr := st.WithDetails(detail); derr == nil {
		st = d
	}
	return st.Err()
}
