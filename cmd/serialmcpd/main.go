// Command serialmcpd is the single-host serial agent process: it wires
// the port service, auto-negotiator, and session store behind the
// tool-dispatch surface, and serves it over newline-delimited
// JSON-RPC on stdin/stdout (§6).
package main

import (
	"os"

	"github.com/mosaic-labs/serialmcp/internal/applog"
	"github.com/mosaic-labs/serialmcp/internal/config"
	"github.com/mosaic-labs/serialmcp/internal/dispatch"
	"github.com/mosaic-labs/serialmcp/internal/enumerate"
	"github.com/mosaic-labs/serialmcp/internal/negotiate"
	"github.com/mosaic-labs/serialmcp/internal/portsvc"
	"github.com/mosaic-labs/serialmcp/internal/rpcserver"
	"github.com/mosaic-labs/serialmcp/internal/serialio"
	"github.com/mosaic-labs/serialmcp/internal/session"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()
	log := applog.New()
	if cfg.DebugBoot {
		applog.LogDebugBoot(log)
	}

	store := session.Open(cfg.SessionDBURL, log)

	opener := func(name string, scfg serialio.Config) (serialio.Handle, error) {
		return serialio.Open(name, scfg)
	}
	ports := portsvc.New(portsvc.Opener(opener))
	negotiator := negotiate.Default(negotiate.Opener(opener))
	enumerator := enumerate.Real{}

	d := dispatch.New(ports, negotiator, store, enumerator)

	server := rpcserver.New(os.Stdin, os.Stdout, d, log, cfg.DisableHeartbeat)
	if err := server.Run(); err != nil {
		log.WithError(err).Error("serialmcpd: fatal transport error")
		ports.Close()
		if cerr := store.Close(); cerr != nil {
			log.WithError(cerr).Warn("serialmcpd: failed to flush session store")
		}
		return 1
	}

	ports.Close()
	if err := store.Close(); err != nil {
		log.WithError(err).Warn("serialmcpd: failed to flush session store")
	}
	log.Info("serialmcpd: clean shutdown")
	return 0
}
