package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/SMI/metacat/cmd/metacat/recurring"
	configs "github.com/SMI/metacat/pkg/configs/metacat"
	mongoconn "github.com/SMI/metacat/pkg/conn/db/mongo"
	pgpool "github.com/SMI/metacat/pkg/conn/db/postgres/pool"
	"github.com/SMI/metacat/pkg/domain"
	"github.com/SMI/metacat/pkg/domain/blocklist"
	catmongo "github.com/SMI/metacat/pkg/domain/catalogue/db/mongo"
	"github.com/SMI/metacat/pkg/domain/counts"
	"github.com/SMI/metacat/pkg/domain/discovery"
	"github.com/SMI/metacat/pkg/domain/promotion"
	"github.com/SMI/metacat/pkg/domain/public"
	"github.com/SMI/metacat/pkg/domain/quality"
	sourcedb "github.com/SMI/metacat/pkg/domain/source/db"
	srcmongo "github.com/SMI/metacat/pkg/domain/source/db/mongo"
	pgsource "github.com/SMI/metacat/pkg/domain/source/db/postgres"
	"github.com/SMI/metacat/pkg/utils/args"
	"github.com/SMI/metacat/pkg/utils/filewatch"
	"github.com/SMI/metacat/pkg/utils/try"
	"github.com/joho/godotenv"
)

func asStage(s string) (domain.Stage, error) {
	switch strings.ToLower(s) {
	case "staging":
		return domain.StageStaging, nil
	case "live":
		return domain.StageLive, nil
	}
	return "", fmt.Errorf("unknown stage: %s (should be one of -- staging|live)", s)
}

func connStringOf(conf *configs.Config, stage domain.Stage) (string, error) {
	switch stage {
	case domain.StageStaging:
		return conf.Relational().Staging(), nil
	case domain.StageLive:
		return conf.Relational().Live(), nil
	}
	return "", fmt.Errorf("no relational database for stage: %s", stage)
}

// dialSource opens a records source per unit of work, released when the
// unit is done.
func dialSource(database string) quality.SourceFactory {
	return func(ctx context.Context) (sourcedb.SourceInterface, func(context.Context), error) {
		client, err := mongoconn.FromEnv(ctx)
		if err != nil {
			return nil, nil, err
		}
		release := func(ctx context.Context) { _ = client.Disconnect(ctx) }
		return srcmongo.New(client, database), release, nil
	}
}

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	// call cancel() when this function exits
	defer cancel()

	// define command line flags
	//-- path to config file
	pconfig := flag.String(
		"config", os.Getenv("METACAT_CONFIG"), "path to config file",
	)
	//-- which task to run
	ptask := flag.String(
		"task", "",
		"one of bootstrap|raw-counts|stage-counts|quality|promote|public|blocklist",
	)
	//-- target stage
	stage := args.Parser(asStage)
	flag.Var(
		stage, "stage",
		`target stage (one of staging|live).`+
			` stage-counts needs it; promote without it applies the blocklists instead`,
	)
	//-- task policy
	policy := args.Parser(recurring.ParsePolicy)
	flag.Var(
		policy, "policy",
		`task policy (syntax: once|forever[:COOLDOWN]).`+
			` "once" = run a single pass (the default).`+
			` "forever[:COOLDOWN]" = rerun until error, waiting COOLDOWN`+
			` (optional duration. default: 0) between passes.`,
	)
	//-- blocklist task inputs
	pmodblock := flag.String(
		"modality-blocklist", "", "path to a modality blocklist JSON file (blocklist task)",
	)
	ptagblock := flag.String(
		"tag-blocklist", "", "path to a tag blocklist JSON file (blocklist task)",
	)
	ppattern := flag.String(
		"block-pattern", "", "block every catalogued name matching this pattern (blocklist task)",
	)
	// parse command line flags
	flag.Parse()

	// store credentials may live in a .env file
	_ = godotenv.Load()

	{
		// watch config
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			logger.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	conf := try.To(configs.LoadConfig(*pconfig)).OrFatal(logger)
	perImage := conf.Source().Collection() == "modality"

	manifest := Manifest{Policy: recurring.Once()}
	if policy.IsSet() {
		manifest.Policy = policy.Value()
	}

	client := try.To(mongoconn.FromEnv(ctx)).OrFatal(logger)
	defer func() { _ = client.Disconnect(context.Background()) }()

	catalogue := catmongo.New(client, conf.Catalogue().Database())
	source := srcmongo.New(client, conf.Source().Database())

	logger.Printf(
		`start task "%s" /w policy "%s"`, *ptask, manifest.Policy.String(),
	)

	var err error
	switch *ptask {
	case "bootstrap":
		err = StartBootstrap(
			ctx, logger,
			discovery.Discoverer{Source: source, Catalogue: catalogue},
			perImage, manifest,
		)
	case "raw-counts":
		err = StartRawCounts(
			ctx, logger,
			counts.RawCounter{Source: source, Catalogue: catalogue},
			perImage, manifest,
		)
	case "stage-counts":
		if !stage.IsSet() {
			logger.Fatal("stage-counts needs -stage")
		}
		connString := try.To(connStringOf(conf, stage.Value())).OrFatal(logger)
		pg := try.To(pgpool.New(ctx, connString)).OrFatal(logger)
		defer pg.Close()
		err = StartStageCounts(
			ctx, logger,
			counts.RelationalCounter{
				DB:        pgsource.New(pg),
				Catalogue: catalogue,
				Stage:     stage.Value(),
			},
			manifest,
		)
	case "quality":
		priority := try.To(quality.AsPriority(conf.Quality().Priority())).OrFatal(logger)
		err = StartQuality(
			ctx, logger,
			quality.Aggregator{
				NewSource:  dialSource(conf.Source().Database()),
				Collection: srcmongo.SeriesCollection,
				Catalogue:  catalogue,
				Workers:    conf.Quality().Workers(),
				Priority:   priority,
			},
			manifest,
		)
	case "promote":
		promoter := promotion.Promoter{Catalogue: catalogue}
		if !stage.IsSet() {
			err = StartPromoteBlocklist(ctx, logger, promoter, manifest)
			break
		}
		connString := try.To(connStringOf(conf, stage.Value())).OrFatal(logger)
		pg := try.To(pgpool.New(ctx, connString)).OrFatal(logger)
		defer pg.Close()
		err = StartPromotePresence(
			ctx, logger, promoter, pgsource.New(pg), stage.Value(), manifest,
		)
	case "public":
		err = StartPublic(
			ctx, logger, public.Marker{Catalogue: catalogue}, manifest,
		)
	case "blocklist":
		err = StartBlocklist(
			ctx, logger,
			blocklist.Loader{Catalogue: catalogue},
			*pmodblock, *ptagblock, *ppattern,
			manifest,
		)
	default:
		logger.Fatalf(
			"unknown task: %s (should be one of --"+
				" bootstrap|raw-counts|stage-counts|quality|promote|public|blocklist)",
			*ptask,
		)
	}

	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		logger.Fatal(err, " (the task context is cancelled by: ", context.Cause(ctx), ")")
	}
	logger.Fatal(err)
}
