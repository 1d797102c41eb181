// Package api 提供监测平台的 HTTP 接口
package api

import (
	"encoding/json"
	"net/http"
)

// 业务状态码
const (
	CodeOK    = 2000
	CodeError = 5000
)

// Result 统一响应信封
type Result[T any] struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data T      `json:"data,omitempty"`
}

// Ok 写成功响应
func Ok[T any](w http.ResponseWriter, data T) {
	writeJSON(w, http.StatusOK, Result[T]{Code: CodeOK, Msg: "success", Data: data})
}

// Fail 写失败响应（HTTP 状态码与业务消息）
func Fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Result[struct{}]{Code: CodeError, Msg: msg})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeBody 解析 JSON 请求体
func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
