package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"personal-calendar/internal/middleware"
	"personal-calendar/internal/model"
)

type eventForm struct {
	Action     string
	Event      model.EventInput
	Categories []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFrom(r.Context())

	events, err := s.Events.ListEvents(r.Context(), sess.UserID)
	if err != nil {
		s.Log.Error("list events", zap.Int64("user_id", sess.UserID), zap.Error(err))
		s.notice(w, r, "/logout", "加载日程失败")
		return
	}
	s.render(w, r, http.StatusOK, "index", events)
}

func (s *Server) handleNewEvent(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "event_form", eventForm{
		Action:     "/events/new",
		Event:      model.EventInput{Category: model.CategoryOther},
		Categories: model.Categories,
	})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFrom(r.Context())

	in, err := formInput(r).Normalize()
	if err != nil {
		s.notice(w, r, "/events/new", "创建失败: "+inputProblem(err))
		return
	}

	id, err := s.Events.CreateEvent(r.Context(), sess.UserID, in)
	if err != nil {
		s.Log.Error("create event", zap.Int64("user_id", sess.UserID), zap.Error(err))
		s.notice(w, r, "/events/new", "创建失败")
		return
	}
	s.Log.Info("event created", zap.Int64("user_id", sess.UserID), zap.Int64("event_id", id))
	http.Redirect(w, r, "/index", http.StatusSeeOther)
}

func (s *Server) handleEditEvent(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		s.notice(w, r, "/index", "日程不存在或无权编辑")
		return
	}
	e, err := s.Events.GetEvent(r.Context(), id, sess.UserID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.Log.Error("get event", zap.Int64("event_id", id), zap.Error(err))
		}
		s.notice(w, r, "/index", "日程不存在或无权编辑")
		return
	}

	s.render(w, r, http.StatusOK, "event_form", eventForm{
		Action: fmt.Sprintf("/events/%d", e.ID),
		Event: model.EventInput{
			Title:      e.Title,
			StartTime:  e.StartTime,
			EndTime:    e.EndTime,
			IsAllDay:   e.IsAllDay,
			RepeatRule: e.RepeatRule,
			Category:   e.Category,
			Notes:      e.Notes,
		},
		Categories: model.CategoryChoices(e.Category),
	})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		s.notice(w, r, "/index", "日程不存在或无权编辑")
		return
	}
	editPage := fmt.Sprintf("/events/%d/edit", id)

	in, err := formInput(r).Normalize()
	if err != nil {
		s.notice(w, r, editPage, "更新失败: "+inputProblem(err))
		return
	}

	switch err := s.Events.UpdateEvent(r.Context(), id, sess.UserID, in); {
	case errors.Is(err, model.ErrNotFound):
		s.notice(w, r, "/index", "日程不存在或无权编辑")
	case err != nil:
		s.Log.Error("update event", zap.Int64("event_id", id), zap.Error(err))
		s.notice(w, r, editPage, "更新失败")
	default:
		http.Redirect(w, r, "/index", http.StatusSeeOther)
	}
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFrom(r.Context())

	id, ok := pathID(r)
	if !ok {
		s.notice(w, r, "/index", "日程不存在或无权删除")
		return
	}

	switch err := s.Events.DeleteEvent(r.Context(), id, sess.UserID); {
	case errors.Is(err, model.ErrNotFound):
		s.notice(w, r, "/index", "日程不存在或无权删除")
	case err != nil:
		s.Log.Error("delete event", zap.Int64("event_id", id), zap.Error(err))
		s.notice(w, r, "/index", "删除失败")
	default:
		http.Redirect(w, r, "/index", http.StatusSeeOther)
	}
}

func formInput(r *http.Request) model.EventInput {
	return model.EventInput{
		Title:      r.PostFormValue("title"),
		StartTime:  r.PostFormValue("start_time"),
		EndTime:    r.PostFormValue("end_time"),
		IsAllDay:   r.PostFormValue("is_all_day") != "",
		RepeatRule: r.PostFormValue("repeat_rule"),
		Category:   r.PostFormValue("category"),
		Notes:      r.PostFormValue("notes"),
	}
}

func inputProblem(err error) string {
	switch {
	case errors.Is(err, model.ErrMissingTitle):
		return "请填写标题"
	case errors.Is(err, model.ErrMalformedTimestamp):
		return "时间格式不正确"
	}
	return err.Error()
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}
