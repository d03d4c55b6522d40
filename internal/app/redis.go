package app

import (
	"context"

	"github.com/redis/rueidis"

	"task-assistant/internal/config"
)

var globalRedisClient rueidis.Client

func MustConnectRedis() {
	cfg := config.Global().Redis

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.Addr},
	})
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("addr", cfg.Addr).
			Msg("failed to create redis client")
		panic(err)
	}

	err = client.Do(context.Background(), client.B().Ping().Build()).Error()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("addr", cfg.Addr).
			Msg("failed to ping redis")
		panic(err)
	}

	globalRedisClient = client
	globalLogger.Info().
		Str("addr", cfg.Addr).
		Msg("connected to redis")
}

func DisconnectRedis() {
	globalRedisClient.Close()
	globalLogger.Info().Msg("disconnected from redis")
}
