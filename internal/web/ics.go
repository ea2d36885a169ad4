package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"personal-calendar/internal/ics"
	"personal-calendar/internal/middleware"
	"personal-calendar/internal/model"
)

const maxUpload = 10 << 20

// handleExport streams the user's calendar, or hands out a presigned link
// when an archive is configured.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFrom(r.Context())

	events, err := s.Events.ListEvents(r.Context(), sess.UserID)
	if err != nil {
		s.Log.Error("export: list events", zap.Int64("user_id", sess.UserID), zap.Error(err))
		s.notice(w, r, "/index", "导出失败")
		return
	}

	doc, skipped := ics.Export(events, s.now())
	for _, id := range skipped {
		s.Log.Warn("export: bad timestamp, event skipped", zap.Int64("event_id", id))
	}

	if s.Archive != nil {
		link, err := s.Archive.Put(r.Context(), sess.UserID, doc)
		if err == nil {
			http.Redirect(w, r, link, http.StatusSeeOther)
			return
		}
		// fall back to streaming
		s.Log.Warn("export: archive failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="my_schedule.ics"`)
	_, _ = w.Write(doc)
}

func (s *Server) handleImportPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "import", nil)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	file, header, err := r.FormFile("ics_file")
	if err != nil || header.Filename == "" {
		s.notice(w, r, "/import", "未选择文件")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.notice(w, r, "/import", "读取文件失败")
		return
	}

	res, err := ics.Import(header.Filename, data)
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, model.ErrUnsupportedFileType):
			msg = "仅支持.ics文件"
		case errors.Is(err, model.ErrEmptyFile):
			msg = "文件为空"
		case errors.Is(err, model.ErrUndecodable):
			msg = "无法识别文件编码"
		default:
			msg = "导入失败: 文件格式错误"
		}
		s.Log.Info("import rejected", zap.String("file", header.Filename), zap.Error(err))
		s.notice(w, r, "/import", msg)
		return
	}

	created := 0
	for _, in := range res.Events {
		if _, err := s.Events.CreateEvent(r.Context(), sess.UserID, in); err != nil {
			s.Log.Error("import: create event", zap.Int("created", created), zap.Error(err))
			s.notice(w, r, "/index", fmt.Sprintf("导入中断，已导入 %d 个日程", created))
			return
		}
		created++
	}

	msg := fmt.Sprintf("成功导入 %d 个日程", created)
	if res.Skipped > 0 {
		msg += fmt.Sprintf("，跳过 %d 个", res.Skipped)
	}
	s.Log.Info("import done", zap.Int64("user_id", sess.UserID), zap.Int("created", created), zap.Int("skipped", res.Skipped))
	s.notice(w, r, "/index", msg)
}
