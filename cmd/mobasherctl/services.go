package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/AthbiHC/mobasher/internal/api"
	"github.com/AthbiHC/mobasher/internal/config"
	"github.com/AthbiHC/mobasher/internal/logging"
	"github.com/AthbiHC/mobasher/internal/queue"
	"github.com/AthbiHC/mobasher/internal/scheduler"
	"github.com/AthbiHC/mobasher/internal/store"
	"github.com/AthbiHC/mobasher/internal/supervisor"
	"github.com/AthbiHC/mobasher/internal/supervisor/services"
	"github.com/AthbiHC/mobasher/internal/worker"
)

const servicesComponent = "services-all"

// componentNames lists every pidfile-tracked component `services ps`
// and `status` report on, in the order they're brought up under
// `services up`.
var componentNames = []string{
	recorderComponent,
	apiComponent,
	servicesComponent,
}

func newServicesCmd() *cobra.Command {
	svc := &cobra.Command{
		Use:   "services",
		Short: "Manage every capture, queue, and API component in one process",
	}
	svc.AddCommand(newServicesUpCmd())
	svc.AddCommand(newServicesDownCmd())
	svc.AddCommand(newServicesPSCmd())
	return svc
}

func newServicesUpCmd() *cobra.Command {
	var detach bool
	var internalForeground bool
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Bring up the capture supervisor, read API, and every worker/scheduler loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadClusterConfig()
			if err != nil {
				return err
			}

			if detach && !internalForeground {
				pidPath := pidFilePath(cfg, servicesComponent)
				logPath := logFilePath(cfg, servicesComponent)
				if err := spawnDetached([]string{"services", "up", "--foreground"}, pidPath, logPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "services started, logs at %s\n", logPath)
				return nil
			}

			return runServicesForeground(cfg)
		},
	}
	cmd.Flags().BoolVar(&detach, "detach", true, "run in the background and return immediately")
	cmd.Flags().BoolVar(&internalForeground, "foreground", false, "run in the foreground (used internally by --detach)")
	return cmd
}

func newServicesDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Stop the combined services process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadClusterConfig()
			if err != nil {
				return err
			}
			return stopPIDFile(pidFilePath(cfg, servicesComponent))
		},
	}
}

func newServicesPSCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ps",
		Short: "List every tracked component and whether it is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadClusterConfig()
			if err != nil {
				return err
			}
			for _, name := range componentNames {
				fmt.Fprintf(cmd.OutOrStdout(), "%-28s %s\n", name, componentState(cfg, name))
			}
			return nil
		},
	}
}

// componentState reports a tracked component's pidfile-derived state:
// "running (pid N)", "stopped (stale pidfile)", or "stopped".
func componentState(cfg *config.ClusterConfig, name string) string {
	pid, err := readPIDFile(pidFilePath(cfg, name))
	if err != nil {
		return "stopped"
	}
	if processAlive(pid) {
		return fmt.Sprintf("running (pid %d)", pid)
	}
	return "stopped (stale pidfile)"
}

// runServicesForeground runs the monolithic bootstrap: every layer
// (capture, queue consumers, schedulers, read API) shares one suture
// tree and one process, for deployments that don't want to run
// mobasherctl's component subcommands separately.
func runServicesForeground(cfg *config.ClusterConfig) error {
	initLogging(cfg)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	stopNATS, err := maybeStartEmbeddedNATS(cfg)
	if err != nil {
		return err
	}
	defer stopNATS()

	dedupe, err := newDedupe(cfg)
	if err != nil {
		return err
	}
	defer dedupe.Close()

	pub, err := newPublisher(cfg, dedupe)
	if err != nil {
		return err
	}
	defer pub.Close()

	poison, err := newPoisonPublisher(cfg)
	if err != nil {
		return err
	}

	if err := writePIDFile(pidFilePath(cfg, servicesComponent)); err != nil {
		return err
	}
	defer removePIDFileQuietly(cfg, servicesComponent)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	chanSup, err := supervisor.NewChannelSupervisor(tree, cfg.DataRoot, st)
	if err != nil {
		return fmt.Errorf("create channel supervisor: %w", err)
	}
	if err := chanSup.StartAll(context.Background(), cfg.ChannelsDir); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}

	handler := api.NewHandler(st, st, st, st, st)
	routerCfg := api.DefaultRouterConfig()
	if cfg.API.AuthMode == "bearer" {
		routerCfg.AuthMode = api.AuthModeBearer
		routerCfg.AuthSecret = []byte(cfg.API.BearerToken)
	}
	router := api.NewRouter(handler, routerCfg)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler: router,
	}
	tree.AddAPIService(services.NewHTTPServerService(apiComponent, httpServer, 10*time.Second))

	client := newInferenceClient()
	resolver := worker.NewPathResolver(cfg.DataRoot, cfg.DataRoot)

	addWorkerLoop(tree, cfg, "asr", queue.TaskASRTranscribeSegment,
		worker.NewASRAnalyser(client, strings.ToLower), worker.NewTranscriptWriter(st), st, resolver, poison)
	addSchedulerLoop(tree, "asr", scheduler.DefaultConfig("asr", queue.TaskASRTranscribeSegment),
		missingTranscriptsLister(st), st, pub)

	for name, stage := range visionStages {
		addWorkerLoop(tree, cfg, "vision-"+name, stage.task,
			stage.newAnalyser(client), worker.NewVisualEventWriter(st), st, resolver, poison)
		addSchedulerLoop(tree, "vision-"+name, scheduler.DefaultConfig("vision-"+name, stage.task),
			missingVisionLister(st, stage.missingKind), st, pub)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	waitForSignalOrDone(ctx, cancel)

	logging.Info().Int("channels", len(chanSup.Status())).Msg("services up")
	return tree.Serve(ctx)
}

// addWorkerLoop wires one stage's consumer into tree's queue layer,
// the combined-process equivalent of `asr worker`/`vision worker`.
func addWorkerLoop(tree *supervisor.SupervisorTree, cfg *config.ClusterConfig, stageName string, task queue.TaskName,
	analyser worker.Analyser, write worker.ArtifactWriter, st *store.Store, resolver worker.PathResolver, poison message.Publisher) {

	consumer, err := newConsumer(cfg, task, poison)
	if err != nil {
		logging.Error().Err(err).Str("stage", stageName).Msg("services: skip worker, consumer setup failed")
		return
	}
	w := &worker.Worker{
		Stage:    stageName,
		Store:    &worker.StoreAdapter{Store: st, Stage: stageName},
		Analyser: analyser,
		Write:    write,
		Resolver: resolver,
	}
	tree.AddQueueService(services.NewFuncService(stageName+"-worker", func(ctx context.Context) error {
		return consumer.Run(ctx, task, w.AsHandler(), cfg.NATS.ConsumerConcurrency)
	}))
}

// addSchedulerLoop wires one stage's periodic enqueue loop into tree's
// queue layer, the combined-process equivalent of `asr scheduler`.
func addSchedulerLoop(tree *supervisor.SupervisorTree, stageName string, cfg scheduler.Config, list scheduler.Lister, st *store.Store, pub *queue.Publisher) {
	sched := scheduler.New(cfg, list, stageMarker(st, stageName), pub)
	tree.AddQueueService(services.NewFuncService(stageName+"-scheduler", func(ctx context.Context) error {
		sched.Run(ctx)
		return nil
	}))
}
