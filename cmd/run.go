package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spigell/smart-apply/internal/logger"
	"github.com/spigell/smart-apply/internal/metrics"
	"github.com/spigell/smart-apply/internal/report"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch, normalize and rank job postings against the resume",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("yes", "y", false, "do not ask for actions, print the result and exit")
	runCmd.Flags().StringP("output", "o", "", "export the result to a .csv, .xlsx or .json file")
	runCmd.Flags().StringP("resume", "r", "", "resume file (.pdf, .txt or .md) to rank postings against")
	runCmd.Flags().StringSliceP("file", "f", nil, "scraped postings file (.json or .csv); can be repeated")
	runCmd.Flags().StringP("exclude-file", "e", "", "special file with postings to exclude. Default is unset.")
	runCmd.Flags().Float64("threshold", 0.4, "minimum similarity score in [0, 1]")
	runCmd.Flags().Int("limit", 4, "maximum number of matched postings")

	viper.BindPFlag("resume", runCmd.Flags().Lookup("resume"))
	viper.BindPFlag("sources.files", runCmd.Flags().Lookup("file"))
	viper.BindPFlag("exclude-file", runCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("matching.threshold", runCmd.Flags().Lookup("threshold"))
	viper.BindPFlag("matching.limit", runCmd.Flags().Lookup("limit"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig(viper.GetViper())
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the smart-apply", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	recorder := metrics.New(metrics.WithPushGateway(config.Metrics.PushgatewayURL, config.Metrics.Job))
	defer func() {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := recorder.Push(pushCtx); err != nil {
			logger.Warn("pushing metrics", zap.Error(err))
		}
	}()

	p, err := newPipeline(ctx, config, logger, recorder)
	if err != nil {
		logger.Fatal("preparing the pipeline", zap.Error(err))
	}
	defer p.Close()

	result, err := p.run(ctx)
	if err != nil {
		logger.Error("running the pipeline", zap.Error(err))
		return
	}

	logger.Info(result.Outcome.Message(),
		zap.String("outcome", result.Outcome.Kind.String()),
		zap.Int("postings", len(result.Postings)),
		zap.Int("normalized", len(result.Records)),
		zap.Int("failed", len(result.Failures)),
	)
	if result.Outcome.Reason != nil {
		logger.Warn("ranking unavailable", zap.Error(result.Outcome.Reason))
	}

	if len(result.Postings) == 0 {
		logger.Info("exiting", zap.String("reason", "no postings left after filters"))
		return
	}

	presenter := newPresenter(cmd.OutOrStdout(), logger, result, config.ExcludeFile)

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := report.Export(output, result.Outcome.Rows); err != nil {
			logger.Error("exporting the result", zap.Error(err))
		} else {
			logger.Info("exported result", zap.String("filename", output))
		}
	}

	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		if err := presenter.show(result.Outcome.Rows); err != nil {
			logger.Error("printing the result", zap.Error(err))
		}
		return
	}

	if err := presenter.interactive(); err != nil {
		logger.Error("exiting", zap.Error(err))
	}
}
