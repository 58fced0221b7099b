package main

import (
	"context"
	"log"
	"time"

	"github.com/SMI/metacat/cmd/metacat/recurring"
	"github.com/SMI/metacat/pkg/domain"
	"github.com/SMI/metacat/pkg/domain/blocklist"
	cataloguedb "github.com/SMI/metacat/pkg/domain/catalogue/db"
	"github.com/SMI/metacat/pkg/domain/counts"
	"github.com/SMI/metacat/pkg/domain/discovery"
	"github.com/SMI/metacat/pkg/domain/promotion"
	"github.com/SMI/metacat/pkg/domain/public"
	"github.com/SMI/metacat/pkg/domain/quality"
	sourcedb "github.com/SMI/metacat/pkg/domain/source/db"
	srcmongo "github.com/SMI/metacat/pkg/domain/source/db/mongo"
	"github.com/SMI/metacat/pkg/loop"
)

type LoggerOptions func(*log.Logger) *log.Logger

func byLogger(l *log.Logger, opt ...LoggerOptions) *log.Logger {
	for _, o := range opt {
		l = o(l)
	}
	return l
}

func Copied() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		return log.New(l.Writer(), l.Prefix(), l.Flags())
	}
}

func WithPrefix(pre string) LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetPrefix(pre)
		return l
	}
}

func WithTimestamp() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetFlags(l.Flags() | log.Ldate | log.Ltime | log.Lmicroseconds)
		return l
	}
}

// Wrapper for monitoring loop tasks
//
//	Log the start and end of each pass of a task. Essentially, it executes a task.
func monitor[T any](logger *log.Logger, task loop.Task[T]) loop.Task[T] {
	// counter for execution of the task
	var counter uint64
	return func(ctx context.Context, t T) (ret T, next loop.Next) {
		counter += 1
		timestamp := time.Now()

		logger.Printf("pass start: #0x%X: ", counter)

		defer func() {
			logger.Printf(
				"pass end: #0x%X (takes %s): %s",
				counter, time.Since(timestamp), next,
			)
		}()

		ret, next = task(ctx, t)
		return
	}
}

// Manifest for starting a task, which determines how the task should behave.
type Manifest struct {
	// Policy for rerunning the task
	Policy recurring.Policy
}

func startTask(
	ctx context.Context,
	logger *log.Logger,
	manifest Manifest,
	task recurring.Task,
) error {
	_, err := loop.Start(
		ctx, struct{}{},
		monitor(logger, task.Applied(manifest.Policy)),
	)
	return err
}

// StartBootstrap discovers the records inventory into the catalogue.
//
// The first run against an empty catalogue builds it from scratch; later
// runs merge new modalities and tags in without removing anything.
func StartBootstrap(
	ctx context.Context,
	logger *log.Logger,
	d discovery.Discoverer,
	perImage bool,
	manifest Manifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[bootstrap]"))
	d.Logger = l
	return startTask(ctx, l, manifest, func(ctx context.Context) error {
		known, err := d.Catalogue.Modalities(ctx, cataloguedb.ModalityQuery{})
		if err != nil {
			return err
		}
		if len(known) == 0 {
			return d.Initialize(ctx, perImage)
		}
		return d.Update(ctx, perImage)
	})
}

// StartRawCounts computes the Raw stage volume records.
func StartRawCounts(
	ctx context.Context,
	logger *log.Logger,
	rc counts.RawCounter,
	perImage bool,
	manifest Manifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[raw counts]"))
	rc.Logger = l
	return startTask(ctx, l, manifest, func(ctx context.Context) error {
		if perImage {
			return rc.CountPerImage(ctx)
		}
		return rc.CountCollection(ctx, srcmongo.SeriesCollection)
	})
}

// StartStageCounts computes the volume records of one promoted stage.
func StartStageCounts(
	ctx context.Context,
	logger *log.Logger,
	rc counts.RelationalCounter,
	manifest Manifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[stage counts]"))
	rc.Logger = l
	return startTask(ctx, l, manifest, rc.CountAll)
}

// StartQuality measures tag completeness.
func StartQuality(
	ctx context.Context,
	logger *log.Logger,
	a quality.Aggregator,
	manifest Manifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[tag quality]"))
	a.Logger = l
	return startTask(ctx, l, manifest, a.Run)
}

// StartPromoteBlocklist applies the blocklists to the catalogue.
func StartPromoteBlocklist(
	ctx context.Context,
	logger *log.Logger,
	p promotion.Promoter,
	manifest Manifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[promote]"))
	p.Logger = l
	return startTask(ctx, l, manifest, p.RunBlocklist)
}

// StartPromotePresence promotes by data presence in the stage database.
func StartPromotePresence(
	ctx context.Context,
	logger *log.Logger,
	p promotion.Promoter,
	db sourcedb.RelationalInterface,
	stage domain.Stage,
	manifest Manifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[promote]"))
	p.Logger = l
	return startTask(ctx, l, manifest, func(ctx context.Context) error {
		return p.RunPresence(ctx, db, stage)
	})
}

// StartPublic marks every catalogued tag public or not.
func StartPublic(
	ctx context.Context,
	logger *log.Logger,
	m public.Marker,
	manifest Manifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[public]"))
	m.Logger = l
	return startTask(ctx, l, manifest, m.Run)
}

// StartBlocklist loads the blocklist collections.
func StartBlocklist(
	ctx context.Context,
	logger *log.Logger,
	loader blocklist.Loader,
	modalityFile string,
	tagFile string,
	pattern string,
	manifest Manifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[blocklist]"))
	loader.Logger = l
	return startTask(ctx, l, manifest, func(ctx context.Context) error {
		return loader.Run(ctx, modalityFile, tagFile, pattern)
	})
}
