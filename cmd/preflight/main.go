// cmd/preflight/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hamed0406/watchdog/internal/config"
	"github.com/hamed0406/watchdog/internal/probe"
)

func main() {
	path := flag.String("config", os.Getenv("WATCHDOG_CONFIG"), "path to watchdog.yaml")
	flag.Parse()

	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(*path)
	if err != nil {
		fail(err.Error())
	}
	ok(fmt.Sprintf("config valid (resource %q, threshold %d, interval %s)",
		cfg.Probe.ResourceName, cfg.Probe.Threshold, cfg.Probe.Interval))

	if cfg.Discord.Token == "" {
		fail("discord.token is empty (set WATCHDOG_DISCORD_TOKEN).")
	}
	ok("discord token present")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	host := probe.HostOf(cfg.Probe.ResourceAddr)
	ip, err := probe.Resolve(ctx, host)
	if err != nil {
		dns := probe.CheckDNS(host)
		fail(fmt.Sprintf("probe address %q does not resolve (dns=%s): %v", host, dns.Class, err))
	}
	ok(fmt.Sprintf("probe address %s -> %s", host, ip))

	if len(cfg.API.AdminAPIKeys) == 0 {
		warn("api.admin_keys is empty; POST /api/reload is open to anyone who can reach the API.")
	}
	if len(cfg.API.PublicAPIKeys) == 0 && len(cfg.API.AdminAPIKeys) == 0 {
		warn("no API keys configured; read routes are open.")
	}

	dests := cfg.SortedDestinations()
	if len(dests) == 0 {
		warn("no destinations configured; status changes will not be announced.")
	}
	for _, d := range dests {
		if d.ChannelID == "" {
			warn(fmt.Sprintf("destination %s (%s) has no channel and will be skipped.", d.ID, d.Name))
		}
	}
	if cfg.MaxDestinations > 0 && len(dests) > cfg.MaxDestinations {
		warn(fmt.Sprintf("%d destinations configured but max_destinations is %d; extras are ignored.",
			len(dests), cfg.MaxDestinations))
	}

	ok("state backend " + cfg.State.Backend)
	ok("preflight passed")
}
