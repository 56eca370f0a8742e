package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/lambda-feedback/watchdeck/handler/schema"
	"github.com/lambda-feedback/watchdeck/internal/sidecar"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/events"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/supervisor"
	"github.com/lambda-feedback/watchdeck/internal/watcher"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// rpcNamespace prefixes every method, e.g. watcher_addDirectory.
const rpcNamespace = "watcher"

// RpcAPI exposes the watcher over JSON-RPC. Besides the command
// methods it offers an "events" subscription which streams every
// worker event as its raw JSON line.
type RpcAPI struct {
	watcher watcher.Watcher
	schema  *schema.Schema
	hub     *events.Hub
	buffer  int
	log     *zap.Logger
}

func (api *RpcAPI) AddDirectory(ctx context.Context, path string) error {
	if err := validateParams(api.schema, schema.SchemaTypeAddDirectory, addDirectoryRequest{Path: path}); err != nil {
		return err
	}

	return api.watcher.AddDirectory(ctx, path)
}

func (api *RpcAPI) RemoveDirectory(ctx context.Context, id string) error {
	if err := validateParams(api.schema, schema.SchemaTypeRemoveDirectory, map[string]string{"id": id}); err != nil {
		return err
	}

	return api.watcher.RemoveDirectory(ctx, id)
}

func (api *RpcAPI) RequestDirectories(ctx context.Context) error {
	return api.watcher.RequestDirectories(ctx)
}

// PickDirectory returns nil if the dialog was cancelled.
func (api *RpcAPI) PickDirectory(ctx context.Context) (*string, error) {
	path, ok, err := api.watcher.PickDirectory(ctx)
	if err != nil || !ok {
		return nil, err
	}

	return &path, nil
}

func (api *RpcAPI) Restart(ctx context.Context) (supervisor.Status, error) {
	if err := api.watcher.Restart(ctx); err != nil {
		return supervisor.Status{}, err
	}

	return api.watcher.Status(), nil
}

func (api *RpcAPI) Status() supervisor.Status {
	return api.watcher.Status()
}

// Events streams worker events to the subscriber. Events published
// while the subscriber lags behind are dropped.
func (api *RpcAPI) Events(ctx context.Context) (*rpc.Subscription, error) {
	notifier, supported := rpc.NotifierFromContext(ctx)
	if !supported {
		return nil, rpc.ErrNotificationsUnsupported
	}

	rpcSub := notifier.CreateSubscription()
	sub := api.hub.Subscribe(api.buffer)

	go func() {
		defer sub.Close()

		for {
			select {
			case evt := <-sub.C():
				if err := notifier.Notify(rpcSub.ID, evt.Payload); err != nil {
					api.log.Debug("failed to notify subscriber", zap.Error(err))
					return
				}
			case <-rpcSub.Err():
				if dropped := sub.Dropped(); dropped > 0 {
					api.log.Debug("subscriber missed events", zap.Uint64("dropped", dropped))
				}
				return
			}
		}
	}()

	return rpcSub, nil
}

type RpcServerParams struct {
	fx.In

	Watcher watcher.Watcher
	Schema  *schema.Schema
	Hub     *events.Hub
	Events  sidecar.EventsConfig
	Log     *zap.Logger
}

func NewRpcServer(params RpcServerParams) (*rpc.Server, error) {
	srv := rpc.NewServer()

	api := &RpcAPI{
		watcher: params.Watcher,
		schema:  params.Schema,
		hub:     params.Hub,
		buffer:  params.Events.Buffer,
		log:     params.Log.Named("rpc"),
	}

	if err := srv.RegisterName(rpcNamespace, api); err != nil {
		return nil, err
	}

	return srv, nil
}

func NewLifecycleRpcServer(params RpcServerParams, lc fx.Lifecycle) (*rpc.Server, error) {
	srv, err := NewRpcServer(params)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.StopHook(srv.Stop))

	return srv, nil
}

// rpcHandler serves plain HTTP calls and upgrades websocket requests,
// which are required for subscriptions.
func rpcHandler(srv *rpc.Server, origins []string) http.Handler {
	ws := srv.WebsocketHandler(origins)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			ws.ServeHTTP(w, r)
			return
		}

		srv.ServeHTTP(w, r)
	})
}
