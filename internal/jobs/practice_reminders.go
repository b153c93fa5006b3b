package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lukasbauer/blabber/internal/notifications"
	"github.com/lukasbauer/blabber/internal/store"
)

// PracticeReminderJob nudges players who have stopped practicing.
// It runs on a configurable interval (default: 1 hour) and:
// - Sends a streak warning to players whose streak would break today
// - Sends a plain practice reminder to everyone else who has been idle
// - Drops push tokens that APNs rejects
type PracticeReminderJob struct {
	store     *store.Store
	apns      *notifications.APNsClient
	logger    *log.Logger
	interval  time.Duration
	idleAfter time.Duration
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewPracticeReminderJob creates a new practice reminder job.
func NewPracticeReminderJob(s *store.Store, apns *notifications.APNsClient, logger *log.Logger, interval time.Duration) *PracticeReminderJob {
	if interval == 0 {
		interval = 1 * time.Hour
	}
	return &PracticeReminderJob{
		store:     s,
		apns:      apns,
		logger:    logger,
		interval:  interval,
		idleAfter: 20 * time.Hour,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background job.
func (j *PracticeReminderJob) Start() {
	j.wg.Add(1)
	go j.run()
	j.logger.Printf("PracticeReminderJob: started (interval=%v)", j.interval)
}

// Stop gracefully stops the background job.
func (j *PracticeReminderJob) Stop() {
	close(j.stopCh)
	j.wg.Wait()
	j.logger.Println("PracticeReminderJob: stopped")
}

func (j *PracticeReminderJob) run() {
	defer j.wg.Done()

	// Run immediately on start
	j.processIdlePlayers()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.processIdlePlayers()
		case <-j.stopCh:
			return
		}
	}
}

func (j *PracticeReminderJob) processIdlePlayers() {
	if j.apns == nil {
		return
	}

	ctx := context.Background()
	cutoff := time.Now().Add(-j.idleAfter)

	players, err := j.store.IdlePlayersWithTokens(ctx, cutoff)
	if err != nil {
		j.logger.Printf("PracticeReminderJob: failed to get idle players: %v", err)
		return
	}

	sent := 0
	for _, player := range players {
		if j.remindPlayer(ctx, player) {
			sent++
		}
	}

	if sent > 0 {
		j.logger.Printf("PracticeReminderJob: sent %d reminders", sent)
	}
}

// remindPlayer sends at most one notification per registered device.
// Returns true if at least one notification went out.
func (j *PracticeReminderJob) remindPlayer(ctx context.Context, player store.Player) bool {
	tokens, err := j.store.GetPlayerPushTokens(ctx, player.ID)
	if err != nil {
		j.logger.Printf("PracticeReminderJob: failed to get tokens for player %s: %v", player.ID, err)
		return false
	}

	stats, err := j.store.GetPlayerStats(ctx, player.ID)
	if err != nil {
		j.logger.Printf("PracticeReminderJob: failed to get stats for player %s: %v", player.ID, err)
		return false
	}

	sent := false
	for _, t := range tokens {
		var pushErr error
		if stats.StreakDays >= 2 {
			pushErr = j.apns.SendStreakWarning(t.Token, stats.StreakDays)
		} else {
			pushErr = j.apns.SendPracticeReminder(t.Token, player.Nickname)
		}

		if pushErr != nil {
			// A rejected token is stale (app removed, token rotated). Drop it
			// so we stop retrying every interval.
			if unregErr := j.store.UnregisterPushToken(ctx, t.Token); unregErr != nil {
				j.logger.Printf("PracticeReminderJob: failed to drop stale token: %v", unregErr)
			}
			continue
		}
		sent = true
	}
	return sent
}
