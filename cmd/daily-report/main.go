package main

import (
	"time"

	"go-pharmacy-pos/internal/model"
	"go-pharmacy-pos/internal/notifier"
	"go-pharmacy-pos/internal/repository"
	"go-pharmacy-pos/internal/service"
	"go-pharmacy-pos/pkg/database"
	applogger "go-pharmacy-pos/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Mails every administrator today's per-branch sales summary. Meant to run
// from cron at close of business.
func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn(".env file not found")
	}
	applogger.Setup()

	db := database.ConnectDB()

	saleRepo := repository.NewSaleRepo(db)
	stockRepo := repository.NewStockRepo(db)
	branchRepo := repository.NewBranchRepo(db)
	userRepo := repository.NewUserRepo(db)

	reportService := service.NewReportService(saleRepo, stockRepo, branchRepo)

	summaries, err := reportService.DailySummaries()
	if err != nil {
		logrus.WithError(err).Fatal("failed to build daily summaries")
	}
	if len(summaries) == 0 {
		logrus.Info("no branches configured, nothing to report")
		return
	}

	admins, err := userRepo.FindByRoleCode(model.RoleAdmin)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load administrators")
	}
	if len(admins) == 0 {
		logrus.Warn("no administrators to mail")
		return
	}

	now := time.Now()
	subject := "Daily sales report - " + now.Format("2006-01-02")
	body := reportService.DailyReportBody(summaries, now)
	mailer := notifier.FromEnv()

	sent := 0
	for _, admin := range admins {
		if admin.Email == "" {
			continue
		}
		if err := mailer.Send(admin.Email, subject, body); err != nil {
			logrus.WithError(err).WithField("email", admin.Email).Warn("daily report mail failed")
			continue
		}
		sent++
	}
	logrus.WithFields(logrus.Fields{
		"branches": len(summaries),
		"sent":     sent,
	}).Info("daily report finished")
}
