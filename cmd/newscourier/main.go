package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"NewsCourier/internal/app"
	"NewsCourier/internal/config"
	"NewsCourier/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "newscourier",
		Short:         "Crawl news, persist articles, and push subscriber notifications",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCategoriesCmd(),
		newCrawlCmd(),
		newETLCmd(),
		newNotifyCmd(),
		newServeCmd(),
		newRunCmd(),
	)
	return root
}

// withApp loads config, validates it, and hands a wired application to fn.
func withApp(ctx context.Context, validate func(config.Config) error, fn func(context.Context, *app.Application) error) error {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		return err
	}

	logger := logging.New(cfg.Logging.Level)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	return fn(ctx, application)
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Refresh the category mapping from the source site",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), config.Config.ValidateForETL, func(ctx context.Context, a *app.Application) error {
				mapping := a.Registry().GetMapping(ctx, true)
				for key, name := range mapping {
					fmt.Printf("%s: %s\n", key, name)
				}
				return nil
			})
		},
	}
}

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <category-key>",
		Short: "Crawl one category and print the records without persisting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), config.Config.ValidateForETL, func(ctx context.Context, a *app.Application) error {
				count := 0
				for raw, err := range a.NewCrawler().Crawl(ctx, args[0]) {
					if err != nil {
						return err
					}
					count++
					fmt.Printf("%s  %s\n  %s\n", raw.PublishTime.Format("2006-01-02 15:04"), raw.Title, raw.URL)
				}
				fmt.Printf("crawled %d articles\n", count)
				return nil
			})
		},
	}
}

func newETLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "etl [category-key...]",
		Short: "Run the full crawl, transform, and load pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), config.Config.ValidateForETL, func(ctx context.Context, a *app.Application) error {
				summary := a.RunETL(ctx, args)
				fmt.Printf("processed=%d saved=%d duplicates=%d dropped=%d success_rate=%.2f\n",
					summary.Processed, summary.Saved, summary.Duplicates, summary.Dropped, summary.SuccessRate())
				return nil
			})
		},
	}
}

func newNotifyCmd() *cobra.Command {
	var weatherOnly, newsOnly bool

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send subscription notifications",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if weatherOnly && newsOnly {
				return fmt.Errorf("--weather-only and --news-only are mutually exclusive")
			}

			sendWeather := !newsOnly
			sendNews := !weatherOnly

			validate := func(cfg config.Config) error {
				return cfg.ValidateForNotify(sendWeather)
			}
			return withApp(cmd.Context(), validate, func(ctx context.Context, a *app.Application) error {
				return a.RunNotifications(ctx, sendWeather, sendNews)
			})
		},
	}

	cmd.Flags().BoolVar(&weatherOnly, "weather-only", false, "send only weather notifications")
	cmd.Flags().BoolVar(&newsOnly, "news-only", false, "send only news notifications")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the LINE webhook server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			validate := func(cfg config.Config) error {
				return cfg.ValidateForNotify(false)
			}
			return withApp(cmd.Context(), validate, func(ctx context.Context, a *app.Application) error {
				return a.RunWebhook(ctx)
			})
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler daemon with the crawl and notify jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			validate := func(cfg config.Config) error {
				return cfg.ValidateForNotify(false)
			}
			return withApp(cmd.Context(), validate, func(ctx context.Context, a *app.Application) error {
				return a.RunScheduler(ctx)
			})
		},
	}
}
