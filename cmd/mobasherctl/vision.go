package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AthbiHC/mobasher/internal/logging"
	"github.com/AthbiHC/mobasher/internal/queue"
	"github.com/AthbiHC/mobasher/internal/scheduler"
	"github.com/AthbiHC/mobasher/internal/store"
	"github.com/AthbiHC/mobasher/internal/supervisor"
	"github.com/AthbiHC/mobasher/internal/supervisor/services"
	"github.com/AthbiHC/mobasher/internal/worker"
)

// visionStage bundles what a vision subcommand needs to know about one
// of the four vision tasks: the queue task it drives, the missing-
// artifact kind ListSegmentsMissingVision expects, and the Analyser
// constructor.
type visionStage struct {
	task         queue.TaskName
	missingKind  string
	newAnalyser  func(worker.AnalyserBackend) worker.Analyser
}

var visionStages = map[string]visionStage{
	"ocr":         {queue.TaskVisionOCRSegment, "ocr_segment", func(b worker.AnalyserBackend) worker.Analyser { return worker.NewOCRAnalyser(b) }},
	"objects":     {queue.TaskVisionObjectsSegment, "objects_segment", worker.NewObjectsAnalyser},
	"faces":       {queue.TaskVisionFacesSegment, "faces_segment", worker.NewFacesAnalyser},
	"screenshots": {queue.TaskVisionScreenshotsSegment, "screenshots_segment", func(b worker.AnalyserBackend) worker.Analyser { return worker.NewScreenshotsAnalyser(b) }},
}

func newVisionCmd() *cobra.Command {
	vision := &cobra.Command{
		Use:   "vision",
		Short: "Run and drive the OCR/object/face/screenshot pipelines",
	}
	vision.AddCommand(newVisionWorkerCmd())
	vision.AddCommand(newVisionEnqueueCmd())
	vision.AddCommand(newVisionEnqueueScreenshotsCmd())
	return vision
}

func newVisionWorkerCmd() *cobra.Command {
	var stageName string
	var ocrWriteRaw bool
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume one vision task until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, ok := visionStages[stageName]
			if !ok {
				return fmt.Errorf("unknown vision stage %q (want ocr, objects, faces, or screenshots)", stageName)
			}

			cfg, st, err := bootstrap()
			if err != nil {
				return err
			}
			defer st.Close()

			stopNATS, err := maybeStartEmbeddedNATS(cfg)
			if err != nil {
				return err
			}
			defer stopNATS()

			poison, err := newPoisonPublisher(cfg)
			if err != nil {
				return err
			}
			consumer, err := newConsumer(cfg, stage.task, poison)
			if err != nil {
				return err
			}

			analyser := stage.newAnalyser(newInferenceClient())
			if stageName == "ocr" && ocrWriteRaw {
				if ocrAnalyser, ok := analyser.(*worker.OCRAnalyser); ok {
					ocrAnalyser.Config.WriteRaw = true
				}
			}

			w := &worker.Worker{
				Stage:    stageName,
				Store:    &worker.StoreAdapter{Store: st, Stage: stageName},
				Analyser: analyser,
				Write:    worker.NewVisualEventWriter(st),
				Resolver: worker.NewPathResolver(cfg.DataRoot, cfg.DataRoot),
			}

			tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
			if err != nil {
				return fmt.Errorf("create supervisor tree: %w", err)
			}
			name := "vision-" + stageName + "-worker"
			tree.AddQueueService(services.NewFuncService(name, func(ctx context.Context) error {
				return consumer.Run(ctx, stage.task, w.AsHandler(), cfg.NATS.ConsumerConcurrency)
			}))

			if err := writePIDFile(pidFilePath(cfg, name)); err != nil {
				return err
			}
			defer removePIDFileQuietly(cfg, name)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			waitForSignalOrDone(ctx, cancel)

			logging.Info().Str("stage", stageName).Msg("vision worker started")
			return tree.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&stageName, "stage", "", "ocr, objects, faces, or screenshots (required)")
	cmd.Flags().BoolVar(&ocrWriteRaw, "ocr-write-raw", false, "with --stage ocr, also emit one raw per-token event per detection")
	_ = cmd.MarkFlagRequired("stage")
	return cmd
}

func newVisionEnqueueCmd() *cobra.Command {
	var stageName string
	cmd := &cobra.Command{
		Use:   "enqueue <segment-id> <started-at-rfc3339>",
		Short: "Manually enqueue one segment for a vision task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, ok := visionStages[stageName]
			if !ok {
				return fmt.Errorf("unknown vision stage %q (want ocr, objects, faces, or screenshots)", stageName)
			}
			return enqueueVisionSegment(cmd, stage, args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&stageName, "stage", "", "ocr, objects, or faces (required)")
	_ = cmd.MarkFlagRequired("stage")
	return cmd
}

// newVisionEnqueueScreenshotsCmd is split out from the generic enqueue
// subcommand since the documented subcommand surface names it
// separately: screenshots are sampled independently of OCR/object/face
// detection and operators reach for them on their own.
func newVisionEnqueueScreenshotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enqueue-screenshots <segment-id> <started-at-rfc3339>",
		Short: "Manually enqueue one segment for screenshot capture",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return enqueueVisionSegment(cmd, visionStages["screenshots"], args[0], args[1])
		},
	}
}

func enqueueVisionSegment(cmd *cobra.Command, stage visionStage, segmentID, startedAtStr string) error {
	cfg, err := loadClusterConfig()
	if err != nil {
		return err
	}
	startedAt, err := time.Parse(time.RFC3339, startedAtStr)
	if err != nil {
		return fmt.Errorf("parse started-at: %w", err)
	}

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

	enqueued, err := pub.Enqueue(context.Background(), stage.task,
		queue.Args{SegmentID: segmentID, SegmentStartedAt: startedAt},
		queue.DedupeKey(string(stage.task), segmentID, startedAt), cfg.Dedupe.DefaultTTL)
	if err != nil {
		return err
	}
	if enqueued {
		fmt.Fprintln(cmd.OutOrStdout(), "enqueued")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "already queued (deduped)")
	}
	return nil
}

// missingVisionLister adapts store.Store's native return shape into the
// scheduler.Lister signature for a given vision missing-artifact kind.
func missingVisionLister(st *store.Store, kind string) scheduler.Lister {
	return func(ctx context.Context, channelID string, since time.Time, limit int) ([]scheduler.Candidate, error) {
		segs, err := st.ListSegmentsMissingVision(ctx, kind, channelID, &since, limit)
		if err != nil {
			return nil, err
		}
		out := make([]scheduler.Candidate, len(segs))
		for i, s := range segs {
			out[i] = scheduler.Candidate{ID: s.ID, StartedAt: s.StartedAt}
		}
		return out, nil
	}
}
