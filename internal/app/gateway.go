// Package app assembles the record gateway shared by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"tableadmin/internal/config"
	intdb "tableadmin/internal/db"
	"tableadmin/internal/gateway"
	"tableadmin/internal/repositories"
	"tableadmin/internal/utils"
)

// OpenGateway builds the gateway selected by env.Gateway and puts the redis
// summary cache in front of it when env.RedisAddr is set. The returned
// func releases whatever connections were opened.
func OpenGateway(ctx context.Context, env config.Env) (gateway.Gateway, func(), error) {
	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var gw gateway.Gateway
	switch env.Gateway {
	case config.GatewayREST:
		gw = gateway.NewClient(env.BackendURL, env.BackendTimeout)
	case config.GatewayMySQL:
		conn, err := config.ConnectDB(env.MySQLDSN)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, config.CloseDB)
		if err := intdb.EnsureRecordsTable(ctx, conn); err != nil {
			closeAll()
			return nil, func() {}, err
		}
		gw = repositories.RecordRepository{DB: conn}
	case config.GatewayMemory, "":
		store, err := gateway.OpenMemoryStore(env.DataFile)
		if err != nil {
			return nil, closeAll, err
		}
		gw = store
	default:
		return nil, closeAll, fmt.Errorf("unknown gateway %q", env.Gateway)
	}

	client, err := config.ConnectRedis(env.RedisAddr)
	if err != nil {
		closeAll()
		return nil, func() {}, err
	}
	if client != nil {
		closers = append(closers, func() { _ = client.Close() })
		gw = gateway.WithSummaryCache(gw, gateway.NewRedisSummaryCache(client))
	}

	utils.LogEvent("", "app", "open_gateway", fmt.Sprintf("gateway=%s cache=%t", utils.Fallback(env.Gateway, config.GatewayMemory), client != nil))
	return gw, closeAll, nil
}
