package server

import (
	"encoding/json"
	"net/http"
)

// HandleMetrics 输出会话运行指标
// GET /metrics
func HandleMetrics(m *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"metrics": m.Snapshot()})
	}
}

// NewAdminMux 管理与监控接口
func NewAdminMux(m *Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", HandleMetrics(m))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
