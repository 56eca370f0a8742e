package handler

type AuthConfig struct {
	// Key, if set, must be sent in the api-key header of every request
	// except health checks.
	Key string `conf:"key"`
}

type RpcConfig struct {
	// Origins are the allowed origins for websocket connections.
	Origins []string `conf:"origins"`
}

type Config struct {
	Auth AuthConfig `conf:"auth"`
	Rpc  RpcConfig  `conf:"rpc"`
}
