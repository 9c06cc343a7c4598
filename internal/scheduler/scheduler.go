package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/budongsan-crm/internal/app/service"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"github.com/robfig/cron/v3"
)

const (
	// 매시 정각: 24시간 안에 시작하는 일정 알림 (일정당 한 번)
	reminderSpec = "0 * * * *"
	// 매일 04:00 (KST): 기간이 끝난 구독 결제
	renewalSpec = "0 4 * * *"

	renewalTimeout = 10 * time.Minute
)

// ReminderSender 일정 알림 발송 (service.ScheduleService)
type ReminderSender interface {
	SendDueReminders(now time.Time) (int, error)
}

// SubscriptionRenewer 정기결제 배치 (service.SubscriptionService)
type SubscriptionRenewer interface {
	RenewDue(ctx context.Context, now time.Time) (*service.RenewalResult, error)
}

// Scheduler 일정 알림과 구독 갱신 스케줄러
type Scheduler struct {
	cron      *cron.Cron
	reminders ReminderSender
	renewer   SubscriptionRenewer
	now       func() time.Time
}

// NewScheduler renewer 가 nil 이면 구독 갱신 작업을 등록하지 않는다.
func NewScheduler(reminders ReminderSender, renewer SubscriptionRenewer) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(service.SeoulLocation())),
		reminders: reminders,
		renewer:   renewer,
		now:       time.Now,
	}
}

// Start 스케줄러 시작
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(reminderSpec, s.RunReminders); err != nil {
		logger.Error("Failed to add cron job for schedule reminders", err)
		return err
	}

	if s.renewer != nil {
		if _, err := s.cron.AddFunc(renewalSpec, s.RunRenewals); err != nil {
			logger.Error("Failed to add cron job for subscription renewal", err)
			return err
		}
	}

	s.cron.Start()
	logger.Info("Scheduler started successfully", map[string]interface{}{
		"reminders": reminderSpec,
		"renewals":  s.renewer != nil,
	})
	return nil
}

// RunReminders 일정 알림 한 회차
func (s *Scheduler) RunReminders() {
	sent, err := s.reminders.SendDueReminders(s.now())
	if err != nil {
		logger.Error("Failed to send schedule reminders", err)
		return
	}
	if sent > 0 {
		logger.Info("Schedule reminders sent", map[string]interface{}{
			"count": sent,
		})
	}
}

// RunRenewals 구독 갱신 한 회차
func (s *Scheduler) RunRenewals() {
	if s.renewer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), renewalTimeout)
	defer cancel()

	result, err := s.renewer.RenewDue(ctx, s.now())
	if err != nil {
		logger.Error("Subscription renewal run failed", err)
		return
	}
	logger.Info("Subscription renewal run finished", map[string]interface{}{
		"renewed": result.Renewed,
		"failed":  result.Failed,
		"expired": result.Expired,
	})
}

// Stop 스케줄러 중지. 실행 중인 작업이 끝날 때까지 기다린다.
func (s *Scheduler) Stop() {
	logger.Info("Stopping scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Scheduler stopped", nil)
}
