package server

import "time"

const readHeaderTimeout = 10 * time.Second

type HttpConfig struct {
	Host string `conf:"host"`
	Port int    `conf:"port"`
	H2c  bool   `conf:"h2c"`
}
