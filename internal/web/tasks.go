package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"personal-calendar/internal/middleware"
	"personal-calendar/internal/model"
	"personal-calendar/internal/tasksplit"
)

const maxJSONBody = 64 << 10

func (s *Server) handleTasksPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "tasks", nil)
}

type splitRequest struct {
	Task string `json:"task"`
	Lang string `json:"lang"`
}

func (s *Server) handleSplitTask(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.SessionFrom(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	var req splitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "请求格式错误")
		return
	}
	task := strings.TrimSpace(req.Task)
	if task == "" {
		writeError(w, http.StatusBadRequest, "请输入任务描述")
		return
	}

	steps, err := s.Splitter.Split(r.Context(), task, req.Lang)
	if err != nil {
		if !errors.Is(err, model.ErrCompletionFailed) {
			s.Log.Error("split task", zap.Error(err))
		}
		writeError(w, http.StatusBadGateway, "任务拆分服务暂时不可用")
		return
	}
	if steps == nil {
		steps = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "steps": steps})
}

type saveRequest struct {
	MainTask string   `json:"main_task"`
	Steps    []string `json:"steps"`
}

// handleSaveSubtasks writes each step as its own event, one at a time.
func (s *Server) handleSaveSubtasks(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	var req saveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "请求格式错误")
		return
	}
	mainTask := strings.TrimSpace(req.MainTask)
	if mainTask == "" || len(req.Steps) == 0 {
		writeError(w, http.StatusBadRequest, "缺少主任务或步骤")
		return
	}

	count := 0
	for _, in := range tasksplit.SubtaskInputs(mainTask, req.Steps, s.now()) {
		in, err := in.Normalize()
		if err == nil {
			_, err = s.Events.CreateEvent(r.Context(), sess.UserID, in)
		}
		if err != nil {
			s.Log.Error("save subtasks", zap.Int("saved", count), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"success": false, "error": "保存失败", "count": count,
			})
			return
		}
		count++
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": count})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(v)
}
