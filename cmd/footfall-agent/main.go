package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"footfall/internal/adapters/journal"
	"footfall/internal/adapters/rtdb"
	"footfall/internal/adapters/simcom"
	"footfall/internal/adapters/wifiscan"
	"footfall/internal/core/identity"
	"footfall/internal/core/token"
	"footfall/internal/core/version"
	"footfall/internal/modkit"
	"footfall/internal/modkit/httpkit"
	"footfall/internal/modkit/module"
	"footfall/internal/platform/config"
	"footfall/internal/platform/logger"
	phttp "footfall/internal/platform/net/http"

	aggmod "footfall/internal/services/aggregate/module"
	cloudmod "footfall/internal/services/cloudsync/module"
	cloudsvc "footfall/internal/services/cloudsync/service"
	diaghttp "footfall/internal/services/diag/http"
	diagmod "footfall/internal/services/diag/module"
	probemod "footfall/internal/services/probe/module"
	runnermod "footfall/internal/services/runner/module"
	runnersvc "footfall/internal/services/runner/service"
)

const serviceName = "footfall-agent"

func main() {
	showVersion := flag.Bool("version", false, "print build info and exit")
	flag.Parse()
	if *showVersion {
		fmt.Printf("%+v\n", version.Info(serviceName))
		return
	}

	root := config.New().Prefix("FOOTFALL_")
	l := logger.Get()
	startedAt := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// device identity
	devCfg := root.Prefix("DEVICE_")
	scanCfg := root.Prefix("SERVICE_SCAN_")
	panelID := devCfg.MustString("PANEL_ID")
	iface := scanCfg.MayString("IFACE", "wlan0")
	mac, err := identity.InterfaceMAC(iface)
	if err != nil {
		l.Warn().Err(err).Str("iface", iface).Msg("mac unavailable")
		mac = identity.UnknownMAC
	}
	dev := identity.Device{
		PanelID:  panelID,
		Name:     devCfg.MayString("NAME", identity.DefaultName(panelID)),
		MAC:      mac,
		Firmware: version.Firmware(),
	}
	if err := dev.Validate(); err != nil {
		l.Fatal().Err(err).Msg("bad device identity")
	}

	// local journal
	jr := journal.Open(journal.Options{Path: devCfg.MayString("JOURNAL_PATH", "footfall.journal")})
	defer func() { _ = jr.Close() }()
	jr.Mark("agent boot")

	// per-boot salt: tokens from different boots can never be joined
	hasher := token.NewHasher(token.MustSalt())

	// scan source
	var scanner wifiscan.Scanner
	switch backend := scanCfg.MayString("BACKEND", "iw"); backend {
	case "replay":
		rp, err := wifiscan.OpenReplay(scanCfg.MustString("REPLAY_PATH"))
		if err != nil {
			l.Fatal().Err(err).Msg("replay capture open failed")
		}
		defer func() { _ = rp.Close() }()
		scanner = rp
	case "iw":
		scanner = wifiscan.NewIW(iface)
	default:
		l.Fatal().Str("backend", backend).Msg("unknown scan backend")
	}

	// modem channel
	modemCfg := root.Prefix("SERVICE_MODEM_")
	ch, err := simcom.Open(simcom.Options{
		Device: modemCfg.MayString("DEVICE", "/dev/ttyUSB2"),
		Baud:   modemCfg.MayInt("BAUD", 115200),
	})
	if err != nil {
		l.Fatal().Err(err).Msg("modem open failed")
	}
	defer func() { _ = ch.Close() }()

	// remote session
	rtdbCfg := root.Prefix("SERVICE_RTDB_")
	client := rtdb.NewClient(rtdb.Options{
		BaseURL:    rtdbCfg.MustString("URL"),
		APIKey:     rtdbCfg.MustString("API_KEY"),
		Timeout:    rtdbCfg.MayDuration("TIMEOUT", 10*time.Second),
		MaxRetries: rtdbCfg.MayInt("MAX_RETRIES", 3),
		RetryBase:  rtdbCfg.MayDuration("RETRY_BASE", 250*time.Millisecond),
	})
	tracker := cloudsvc.NewTracker()
	session := rtdb.NewSession(client,
		rtdbCfg.MayString("EMAIL", dev.AccessEmail()),
		rtdbCfg.MustString("PASSWORD"),
		tracker.Dispatch,
	)
	pump := func() { session.Advance() }

	deps := modkit.Deps{Cfg: root, Log: *l}

	// modules
	am := aggmod.New(deps)
	aggPorts := am.Ports().(aggmod.Ports)

	pm := probemod.New(deps, ch, pump)
	probePorts := pm.Ports().(probemod.Ports)

	cm := cloudmod.New(deps, cloudmod.Deps{
		Session: session,
		Env:     probePorts.Env,
		Agg:     aggPorts.State,
		Tracker: tracker,
		Device:  dev,
		Journal: jr,
	})
	syncPort := cm.Ports().(cloudmod.Ports).Sync

	rm := runnermod.New(deps, runnersvc.Deps{
		Scanner:  scanner,
		Hasher:   hasher,
		Recorder: aggPorts.Recorder,
		Sync:     syncPort,
		Journal:  jr,
		Pump:     pump,
	})

	module.Register(am.Name(), am.Ports())
	module.Register(pm.Name(), pm.Ports())
	module.Register(cm.Name(), cm.Ports())
	module.Register(rm.Name(), rm.Ports())

	// local diagnostics listener
	diagCfg := root.Prefix("CORE_DIAG_")
	if diagCfg.MayBool("ENABLED", true) {
		srv := phttp.NewServer(diagCfg)
		dm := diagmod.New(deps, diaghttp.Deps{
			Service:   serviceName,
			StartedAt: startedAt,
			Device:    dev,
			Reader:    aggPorts.Reader,

			Fix:         probePorts.Env.Fix,
			Ready:       session.Ready,
			Transferred: session.Transferred,
		})
		httpkit.MountAPIV1(srv.Router(), httpkit.CommonStack(), func(api httpkit.Router) {
			dm.MountRoutes(api)
		})
		go func() {
			if err := srv.Run(ctx); err != nil {
				l.Error().Err(err).Msg("diag listener failed")
			}
		}()
		defer func() { _ = srv.Shutdown(context.Background()) }()
	}

	// bring-up: position, sign-in, device document
	if _, err := probePorts.Env.AcquireFix(ctx); err != nil {
		probePorts.Env.UseFallback()
	}
	if syncPort.AwaitReady(ctx) {
		if err := syncPort.ResumeDay(ctx); err != nil {
			l.Warn().Err(err).Msg("day resume failed, first sync reconciles instead")
		}
		if err := syncPort.PublishDeviceInfo(ctx); err != nil {
			l.Warn().Err(err).Msg("device info publish failed")
		}
	}

	// the loop; a clean return hands control back to the supervisor
	runnerPorts := rm.Ports().(runnermod.Ports)
	if err := runnerPorts.Runner.Run(ctx); err != nil {
		l.Fatal().Err(err).Msg("runner failed")
	}
	jr.Mark("agent exit")
	l.Info().Msg("agent exiting")
}
