package handler

import (
	"encoding/json"
	"net/http"
)

// Health はプロセスの死活を返す。
// GET /health
// 解析サービスの状態は確認しない。
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
