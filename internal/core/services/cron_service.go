package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// CronService schedules the recurring sweeps: daily income shortly after
// midnight and the membership expiry pass every hour.
type CronService struct {
	cron       *cron.Cron
	income     *IncomeService
	membership *MembershipService
}

// NewCronService creates the scheduler with its jobs registered.
func NewCronService(income *IncomeService, membership *MembershipService) (*CronService, error) {
	s := &CronService{
		cron:       cron.New(),
		income:     income,
		membership: membership,
	}

	if _, err := s.cron.AddFunc("5 0 * * *", s.runDailyIncome); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc("@hourly", s.runExpirySweep); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the scheduler.
func (s *CronService) Start() {
	s.cron.Start()
	log.Println("✅ Cron scheduler started")
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("✅ Cron scheduler stopped")
}

func (s *CronService) runDailyIncome() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	credited, err := s.income.CreditDailyIncome(ctx, time.Now())
	if err != nil {
		log.Printf("❌ Daily income sweep failed after %d credits: %v", credited, err)
		return
	}
	log.Printf("✅ Daily income sweep credited %d memberships", credited)
}

func (s *CronService) runExpirySweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	expired, renewed, err := s.membership.ExpireDue(ctx, time.Now())
	if err != nil {
		log.Printf("❌ Expiry sweep failed (expired %d, renewed %d): %v", expired, renewed, err)
		return
	}
	if expired > 0 || renewed > 0 {
		log.Printf("✅ Expiry sweep: %d expired, %d renewed", expired, renewed)
	}
}
