package config

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ConnectRedisWithRetry connects to addr and returns the client plus a
// redislock client on top of it. It gives up when ctx is done.
func ConnectRedisWithRetry(ctx context.Context, addr string, logg *logrus.Logger) (*redis.Client, *redislock.Client, error) {
	var attempt int
	for {
		attempt++
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: "",
			DB:       0, // use default DB
			PoolSize: 10,
		})
		err := rdb.Ping(ctx).Err()
		if err == nil {
			logg.WithFields(logrus.Fields{"addr": addr, "attempt": attempt}).Info("connected to redis")
			return rdb, redislock.New(rdb), nil
		}
		_ = rdb.Close()

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logg.WithFields(logrus.Fields{"addr": addr, "attempt": attempt}).
			Warn("failed to connect redis; retrying in " + sleep.String() + ": " + err.Error())
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}
