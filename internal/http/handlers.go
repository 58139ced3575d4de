package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"echobo/internal/core"
	"echobo/internal/log"
	"echobo/internal/view"
)

// Messages shown when an action cannot complete.
const (
	msgStaleScreen     = "画面が更新されました。もう一度お試しください。"
	msgUnknownCategory = "不明な費用の種類です。"
	msgSaveFailed      = "保存に失敗しました。もう一度お試しください。"
	msgBadRequest      = "リクエストの形式が正しくありません。"
	msgTooManyRequests = "操作が多すぎます。しばらくしてからお試しください。"
)

// maxFormBytes bounds POST bodies. The largest form is a short expense entry.
const maxFormBytes = 16 << 10

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the ledger storage answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"storage": "ok"}
	if err := s.store.Ready(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		checks["storage"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sc := s.sync.Sync(r.Context())
	body, err := s.render("layout.html", newPage(sc))
	if err != nil {
		s.renderFailed(w, r, "layout.html", err)
		return
	}
	NewHTMXResponse().BodyHTML(body).Write(w)
}

// handleNavigate switches screens. Unknown view names land on the dashboard.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	sc := s.sync.Navigate(r.Context(), r.PostForm.Get("view"))
	s.writeScreen(w, r, view.Result{Screen: &sc, Partial: view.PartialScreen})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	action := view.Action(r.PathValue("action"))
	res, err := s.sync.Dispatch(r.Context(), action, r.PostForm)
	s.writeResult(w, r, res, err)
}

// handleExport serves the CSV download. Browsers follow it as a plain link,
// so it is a GET outside the generic action route.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	res, err := s.sync.Dispatch(r.Context(), view.ActionExportCSV, r.URL.Query())
	s.writeResult(w, r, res, err)
}

func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, res view.Result, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	switch {
	case err == nil:
	case errors.Is(err, core.ErrValidation):
		UnprocessableEntityError(res.Message).
			TriggerAlert(res.Message).
			Write(w)
		return
	case errors.Is(err, view.ErrActionNotBound):
		// The page is older than the bound screen; reload it.
		ErrorResponse(http.StatusConflict, msgStaleScreen).
			Header("HX-Refresh", "true").
			TriggerErrorNotification(msgStaleScreen).
			Write(w)
		return
	case errors.Is(err, core.ErrUnknownCategory):
		UnprocessableEntityError(msgUnknownCategory).
			TriggerErrorNotification(msgUnknownCategory).
			Write(w)
		return
	default:
		logger.ErrorContext(ctx, "Action failed",
			log.FieldOperation, log.OpDispatch,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		InternalServerError(msgSaveFailed).
			TriggerErrorNotification(msgSaveFailed).
			Write(w)
		return
	}

	if d := res.Download; d != nil {
		NewHTMXResponse().
			Attachment(d.FileName, d.ContentType, d.Body, res.Message).
			Write(w)
		return
	}

	if res.Screen != nil {
		s.writeScreen(w, r, res)
		return
	}

	b := NewHTMXResponse().Status(http.StatusNoContent)
	if res.Message != "" {
		b.TriggerSuccessNotification(res.Message)
	}
	b.Write(w)
}

// writeScreen renders the partial a result asks for.
func (s *Server) writeScreen(w http.ResponseWriter, r *http.Request, res view.Result) {
	name, data := "app", any(newPage(*res.Screen))
	if res.Partial == view.PartialCategoryChooser && res.Screen.AddExpense != nil {
		name, data = "category_chooser", res.Screen.AddExpense
	}

	body, err := s.render(name, data)
	if err != nil {
		s.renderFailed(w, r, name, err)
		return
	}

	b := NewHTMXResponse().BodyHTML(body)
	if res.Screen.ResetScroll {
		b.TriggerScrollTop()
	}
	if res.Screen.Dashboard != nil {
		b.TriggerChartRefresh()
	}
	if res.Message != "" {
		if res.Blocking {
			b.TriggerAlert(res.Message)
		} else {
			b.TriggerSuccessNotification(res.Message)
		}
	}
	b.Write(w)
}

// writeRateLimited rejects an action over the per-client limit.
func (s *Server) writeRateLimited(w http.ResponseWriter, r *http.Request, retryAfter int) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Action rate limited",
		log.FieldPath, r.URL.Path,
		"retry_after", retryAfter)
	ErrorResponse(http.StatusTooManyRequests, msgTooManyRequests).
		Header("Retry-After", strconv.Itoa(retryAfter)).
		TriggerErrorNotification(msgTooManyRequests).
		Write(w)
}

func (s *Server) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) renderFailed(w http.ResponseWriter, r *http.Request, name string, err error) {
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
		log.FieldOperation, log.OpRender,
		"template", name,
		log.FieldError, err)
	InternalServerError("表示に失敗しました。").Write(w)
}
