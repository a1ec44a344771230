package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRateOpsRoutes 注册批量房价操作相关路由
func (r *Router) RegisterRateOpsRoutes(h *RateOpsHandler) {
	// reference data
	r.Handle("/rateops/api/v1/room-types", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetRoomTypes(w, req)
	})
	r.Handle("/rateops/api/v1/rate-plans", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetRatePlans(w, req)
	})

	// preview
	r.Handle("/rateops/api/v1/bulk/preview", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.PreviewBulkOperation(w, req)
	})

	// preview/{id} (DELETE = 取消预览)
	r.Handle("/rateops/api/v1/bulk/preview/", func(w http.ResponseWriter, req *http.Request) {
		id := strings.TrimPrefix(req.URL.Path, "/rateops/api/v1/bulk/preview/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch req.Method {
		case http.MethodGet:
			h.GetPreview(w, req, id)
		case http.MethodDelete:
			h.DiscardPreview(w, req, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	// apply + progress
	r.Handle("/rateops/api/v1/bulk/apply", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ApplyBulkOperation(w, req)
	})
	r.Handle("/rateops/api/v1/bulk/progress", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetApplyProgress(w, req)
	})

	// audit history
	r.Handle("/rateops/api/v1/bulk/operations", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ListOperations(w, req)
	})

	// calendar export (xlsx)
	r.Handle("/rateops/api/v1/calendar/export", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ExportCalendar(w, req)
	})

	r.Handle("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
