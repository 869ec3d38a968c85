package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/LouYuanbo1/feedharvest/internal/config"
	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/LouYuanbo1/feedharvest/internal/infra/artifact"
	"github.com/LouYuanbo1/feedharvest/internal/infra/browser"
	"github.com/LouYuanbo1/feedharvest/internal/infra/persistence/es"
	"github.com/LouYuanbo1/feedharvest/internal/service/harvest"
	"github.com/LouYuanbo1/feedharvest/param"
	"github.com/spf13/cobra"
)

var (
	outDir      string
	jobsFile    string
	target      int
	maxRounds   int
	staleRounds int
	driver      string
	parallelism int
	fullPage    bool
)

var harvestCmd = &cobra.Command{
	Use:   "harvest [url]...",
	Short: "Harvest one or more profile activity feeds",
	Example: `  # One profile with the default budgets
  feedharvest harvest https://www.linkedin.com/in/jane-doe/recent-activity/all/

  # Several profiles from a jobs file, two browsers at a time
  feedharvest harvest --jobs jobs.yaml --parallelism 2

  # Stop after 20 items and keep the rendered page
  feedharvest harvest --target 20 --full-page <url>`,
	RunE: runHarvest,
}

func init() {
	f := harvestCmd.Flags()
	f.StringVarP(&outDir, "out", "o", "", "output directory (default from config)")
	f.StringVar(&jobsFile, "jobs", "", "YAML/JSON file listing jobs (name, url, out_dir)")
	f.IntVar(&target, "target", 0, "stop once this item number has been seen")
	f.IntVar(&maxRounds, "max-rounds", 0, "maximum number of scroll rounds")
	f.IntVar(&staleRounds, "stale-rounds", 0, "consecutive rounds without a new item before giving up")
	f.StringVar(&driver, "driver", "", "browser driver: rod or chromedp")
	f.IntVar(&parallelism, "parallelism", 0, "profiles harvested at the same time")
	f.BoolVar(&fullPage, "full-page", false, "also save the rendered page as FullPage_<outcome>.html")
}

func applyHarvestFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Directory = outDir
	}
	if flags.Changed("target") {
		cfg.Harvest.Target = target
	}
	if flags.Changed("max-rounds") {
		cfg.Harvest.MaxScrollRounds = maxRounds
	}
	if flags.Changed("stale-rounds") {
		cfg.Harvest.StaleRounds = staleRounds
	}
	if flags.Changed("driver") {
		cfg.Driver = driver
	}
	if flags.Changed("parallelism") {
		cfg.Batch.Parallelism = parallelism
	}
	if flags.Changed("full-page") {
		cfg.Output.SaveFullPage = fullPage
	}
	return cfg.Validate()
}

func runHarvest(cmd *cobra.Command, args []string) error {
	if err := applyHarvestFlags(cmd, appcfg); err != nil {
		return err
	}
	jobs, err := collectJobs(args)
	if err != nil {
		return err
	}

	// 第一次中断取消 ctx:之后的轮询不再等待(进行中的一次等待除外),预算耗尽后照常写出结果;第二次中断直接退出
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		stop()
	}()
	defer stop()

	opts, err := reportSinkOptions(ctx)
	if err != nil {
		return err
	}
	writer := artifact.NewWriter(appcfg.Output.Title, log)
	svc := harvest.NewService(appcfg, writer, log, opts...)

	acquire, parallel, cleanup, err := newAcquirer()
	if err != nil {
		return err
	}
	defer cleanup()

	reports, err := harvest.NewBatch(svc, acquire, parallel, log).Run(ctx, jobs)
	printReports(cmd, reports)
	return err
}

func collectJobs(args []string) ([]*param.Job, error) {
	var jobs []*param.Job
	if jobsFile != "" {
		loaded, err := param.LoadJobs(jobsFile, appcfg.Output.Directory)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, loaded...)
	}
	for _, u := range args {
		jobs = append(jobs, param.NewJob(u, appcfg.Output.Directory))
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no profile url given: pass urls or --jobs")
	}
	return jobs, nil
}

func reportSinkOptions(ctx context.Context) ([]harvest.Option, error) {
	if !appcfg.Elasticsearch.Enabled {
		return nil, nil
	}
	client, err := es.InitTypedEsClient[*model.Report](appcfg, log)
	if err != nil {
		return nil, err
	}
	if err := client.CreateIndexWithMapping(ctx); err != nil {
		return nil, err
	}
	return []harvest.Option{harvest.WithReportSink(client)}, nil
}

// newAcquirer picks how sessions are obtained:
//   - chromedp: a fresh browser per job, one job at a time (the profile
//     directory can only be opened once)
//   - rod with control_url: one shared remote browser, a page per job
//   - rod: a pool of locally launched browsers
func newAcquirer() (harvest.Acquirer, int, func(), error) {
	parallel := appcfg.Batch.Parallelism
	switch {
	case appcfg.Driver == "chromedp":
		if parallel > 1 {
			log.Warn().Int("parallelism", parallel).Msg("chromedp driver runs one job at a time")
		}
		acquire := func(ctx context.Context) (browser.Session, func(), error) {
			session := browser.InitChromedpSession(ctx, appcfg)
			return session, func() { _ = session.Close() }, nil
		}
		return acquire, 1, func() {}, nil

	case appcfg.Rod.ControlURL != "":
		b, err := browser.Connect(appcfg)
		if err != nil {
			return nil, 0, nil, err
		}
		acquire := func(ctx context.Context) (browser.Session, func(), error) {
			session, err := browser.NewRodSession(b, appcfg.Rod.Stealth)
			if err != nil {
				return nil, nil, err
			}
			return session, func() { _ = session.Close() }, nil
		}
		// 远程浏览器由外部管理,这里不关闭
		return acquire, parallel, func() {}, nil

	default:
		pool, err := browser.NewPool(appcfg, parallel, log)
		if err != nil {
			return nil, 0, nil, err
		}
		return harvest.PoolAcquirer(pool), parallel, pool.Close, nil
	}
}

func printReports(cmd *cobra.Command, reports []*model.Report) {
	out := cmd.OutOrStdout()
	for _, r := range reports {
		if r == nil {
			continue
		}
		status := string(r.Outcome)
		if r.Error != "" {
			status += " (" + r.Error + ")"
		}
		fmt.Fprintf(out, "%s\t%s\thighest=%d\tcontainers=%d\n", r.URL, status, r.HighestIndexSeen, r.Containers)
		for _, a := range r.Artifacts {
			fmt.Fprintf(out, "\t%s\n", a)
		}
	}
}
