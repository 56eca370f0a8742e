package handler

import (
	"net/http"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lambda-feedback/watchdeck/internal/server"
	"go.uber.org/zap"
)

func NewAddDirectoryRoute(h *WatcherHandler, config Config, log *zap.Logger) server.HttpHandlerResult {
	return server.AsHttpHandler("POST /directories", requireKey(config.Auth.Key, log, http.HandlerFunc(h.AddDirectory)))
}

func NewRemoveDirectoryRoute(h *WatcherHandler, config Config, log *zap.Logger) server.HttpHandlerResult {
	return server.AsHttpHandler("DELETE /directories/{id}", requireKey(config.Auth.Key, log, http.HandlerFunc(h.RemoveDirectory)))
}

func NewRefreshRoute(h *WatcherHandler, config Config, log *zap.Logger) server.HttpHandlerResult {
	return server.AsHttpHandler("POST /directories/refresh", requireKey(config.Auth.Key, log, http.HandlerFunc(h.RequestDirectories)))
}

func NewPickRoute(h *WatcherHandler, config Config, log *zap.Logger) server.HttpHandlerResult {
	return server.AsHttpHandler("POST /directories/pick", requireKey(config.Auth.Key, log, http.HandlerFunc(h.PickDirectory)))
}

func NewRestartRoute(h *WatcherHandler, config Config, log *zap.Logger) server.HttpHandlerResult {
	return server.AsHttpHandler("POST /worker/restart", requireKey(config.Auth.Key, log, http.HandlerFunc(h.Restart)))
}

func NewDiagnosticsRoute(h *WatcherHandler, config Config, log *zap.Logger) server.HttpHandlerResult {
	return server.AsHttpHandler("GET /diagnostics", requireKey(config.Auth.Key, log, http.HandlerFunc(h.Diagnostics)))
}

func NewHealthRoute(h *WatcherHandler) server.HttpHandlerResult {
	return server.AsHttpHandler("GET /health", http.HandlerFunc(h.Health))
}

func NewRpcRoute(srv *rpc.Server, config Config, log *zap.Logger) server.HttpHandlerResult {
	return server.AsHttpHandler("/rpc", requireKey(config.Auth.Key, log, rpcHandler(srv, config.Rpc.Origins)))
}
