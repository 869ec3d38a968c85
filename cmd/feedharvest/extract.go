package main

import (
	"path/filepath"

	"github.com/LouYuanbo1/feedharvest/internal/domain/model"
	"github.com/LouYuanbo1/feedharvest/internal/infra/artifact"
	"github.com/LouYuanbo1/feedharvest/internal/service/harvest"
	"github.com/spf13/cobra"
)

var extractOut string

var extractCmd = &cobra.Command{
	Use:   "extract <fullpage.html>...",
	Short: "Re-extract LatestPosts artifacts from saved full-page snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		writer := artifact.NewWriter(appcfg.Output.Title, log)
		svc := harvest.NewService(appcfg, writer, log)
		reports := make([]*model.Report, 0, len(args))
		var firstErr error
		for _, path := range args {
			dir := extractOut
			if dir == "" {
				dir = filepath.Dir(path)
			}
			report, err := svc.Extract(cmd.Context(), path, dir)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("extract failed")
				if firstErr == nil {
					firstErr = err
				}
			}
			if report != nil {
				reports = append(reports, report)
			}
		}
		printReports(cmd, reports)
		return firstErr
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "output directory (default: next to each snapshot)")
}
