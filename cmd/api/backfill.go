package main

import (
	"dailyreport/internal/repository"
	"dailyreport/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill-approvals",
	Short: "Turn legacy rating comments into approval rows",
	Long:  "Scans review comments that carry a rating but no approval link and records them as approved approvals. Safe to run repeatedly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, log, db, err := bootstrap()
		if err != nil {
			return err
		}

		backfill := service.NewBackfillService(
			repository.NewTransactionManager(db),
			repository.NewReportRepository(db),
			repository.NewApprovalRepository(db),
			repository.NewCommentRepository(db),
			repository.NewDirectoryRepository(db),
			repository.NewAuditRepository(db),
			log,
		)
		res, err := backfill.BackfillApprovals(cmd.Context())
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"scanned": res.Scanned,
			"created": res.Created,
			"updated": res.Updated,
			"skipped": res.Skipped,
			"seeded":  res.Seeded,
		}).Info("approval backfill finished")
		return nil
	},
}
