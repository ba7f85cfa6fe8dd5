package cronjobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	pruneSpec = "0 3 * * *"
	probeSpec = "*/5 * * * *"

	pruneTimeout = 2 * time.Minute
)

// Pruner deletes stored situations older than a retention window.
type Pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int, error)
}

// Prober loads the sound model when its artifact appears.
type Prober interface {
	Probe() bool
}

func pruneJob(p Pruner, retention time.Duration) func() {
	return func() {
		log.Println("\nCronJob: Situation Retention Running")
		ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
		defer cancel()

		n, err := p.Prune(ctx, retention)
		if err != nil {
			log.Printf("Error pruning situations: %v", err)
			return
		}
		log.Printf("Pruned %d situations older than %s", n, retention)
	}
}

func probeJob(p Prober) func() {
	loaded := false
	return func() {
		if loaded {
			return
		}
		if p.Probe() {
			loaded = true
			log.Println("CronJob: sound model is active")
		}
	}
}

// InitCronJobs schedules retention pruning daily at 03:00 and the sound
// model probe every five minutes. A nil pruner or prober skips its job.
// The caller stops the returned scheduler.
func InitCronJobs(pruner Pruner, prober Prober, retentionDays int) *cron.Cron {
	log.Println("\nStarting Cron Jobs -------------------------------------------------------")
	c := cron.New()

	if pruner != nil && retentionDays > 0 {
		retention := time.Duration(retentionDays) * 24 * time.Hour
		if _, err := c.AddFunc(pruneSpec, pruneJob(pruner, retention)); err != nil {
			log.Println("Error scheduling Situation Retention:", err)
		}
	}

	if prober != nil {
		if _, err := c.AddFunc(probeSpec, probeJob(prober)); err != nil {
			log.Println("Error scheduling Sound Model Probe:", err)
		}
	}

	c.Start()
	return c
}
