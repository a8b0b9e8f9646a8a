package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netifmon/internal/advertise"
	"github.com/dmdmdm-nz/netifmon/internal/api"
	"github.com/dmdmdm-nz/netifmon/internal/render"
	"github.com/dmdmdm-nz/netifmon/internal/runtime"
	"github.com/dmdmdm-nz/netifmon/pkg/cli"
	"github.com/dmdmdm-nz/netifmon/pkg/ipaddr"
	"github.com/dmdmdm-nz/netifmon/pkg/netif"
	"github.com/dmdmdm-nz/netifmon/pkg/version"
)

func main() {
	// Parse command line flags
	cfg := cli.ParseFlags()

	// Configure logging
	setLogLevel(cfg.LogLevel)
	log.SetFormatter(&log.TextFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FullTimestamp:   true,
	})
	log.SetOutput(os.Stderr)

	format, err := render.ParseFormat(cfg.Format)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	switch cfg.Mode {
	case cli.ModeList:
		err = list(ctx, format)
	case cli.ModeMonitor:
		err = monitor(ctx, cfg, format)
	default:
		err = serve(ctx, cfg)
	}
	if err != nil {
		log.WithError(err).Error("ifmond failed")
		os.Exit(1)
	}
}

func printBanner() {
	fmt.Printf("Using %s v%s\n%s\n\n", version.LibraryName(), version.LibraryVersion(), version.LibraryCopyright())
}

func list(ctx context.Context, format render.Format) error {
	engine := netif.NewSystemEngine()
	defer engine.Close()

	if err := engine.Refresh(ctx); err != nil {
		return err
	}
	if format == render.FormatText {
		printBanner()
	}
	return render.Snapshot(os.Stdout, format, engine.Interfaces())
}

func monitor(ctx context.Context, cfg *cli.Config, format render.Format) error {
	engine := netif.NewSystemEngine(netif.WithPollInterval(cfg.PollInterval))
	defer engine.Close()

	if format == render.FormatText {
		printBanner()
	}

	show := func(typ netif.EventType) func(netif.Interface) {
		return func(intf netif.Interface) {
			if err := render.Event(os.Stdout, format, netif.Event{Type: typ, Interface: intf}); err != nil {
				log.WithError(err).Warn("Failed to render event")
			}
		}
	}
	obs := &netif.ObserverFuncs{
		Added:            show(netif.InterfaceAdded),
		Removed:          show(netif.InterfaceRemoved),
		EnabledChanged:   func(intf netif.Interface, _ bool) { show(netif.EnabledStateChanged)(intf) },
		ConnectedChanged: func(intf netif.Interface, _ bool) { show(netif.ConnectedStateChanged)(intf) },
		AliasChanged:     func(intf netif.Interface, _ string) { show(netif.AliasChanged)(intf) },
		InfosChanged:     func(intf netif.Interface, _ []ipaddr.Info) { show(netif.IPAddressInfosChanged)(intf) },
		GatewaysChanged:  func(intf netif.Interface, _ []ipaddr.Addr) { show(netif.GatewaysChanged)(intf) },
	}
	if err := engine.Register(obs); err != nil {
		return err
	}
	defer engine.Unregister(obs)

	go logEngineErrors(ctx, engine)
	return engine.Start(ctx)
}

func serve(ctx context.Context, cfg *cli.Config) error {
	log.Infof("Config: %s", cfg)

	engine := netif.NewSystemEngine(
		netif.WithPollInterval(cfg.PollInterval),
		netif.WithMetrics(prometheus.DefaultRegisterer),
	)
	apiSvc := api.NewService(cfg.Host, cfg.Port)
	apiSvc.AttachMonitor(engine)

	// Start in dependency order: engine → api → advertiser
	super := runtime.NewSupervisor()
	super.Add("netif", func(ctx context.Context) error {
		go logEngineErrors(ctx, engine)
		return engine.Start(ctx)
	}, engine.Close)
	super.Add("api", apiSvc.Start, apiSvc.Close)
	if cfg.Advertise {
		adv := advertise.New(engine, cfg.Port)
		super.Add("advertise", adv.Start, adv.Close)
	}

	if err := super.Start(ctx); err != nil {
		return fmt.Errorf("supervisor start failed: %w", err)
	}
	if err := super.Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor wait failed: %w", err)
	}
	return nil
}

func logEngineErrors(ctx context.Context, engine *netif.Engine) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-engine.Errors():
			log.WithError(err).Warn("Network interface engine error")
		}
	}
}

func setLogLevel(level string) {
	switch level {
	case "trace":
		log.SetLevel(log.TraceLevel)
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}
