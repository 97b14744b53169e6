package jobs

import (
    "context"
    "fmt"
    "time"

    "github.com/robfig/cron/v3"
    "github.com/sirupsen/logrus"
)

// RoomReleaser frees rooms left RESERVED without any reservation still
// claiming them.  service.BookingService implements it.
type RoomReleaser interface {
    ReleaseStaleRooms(ctx context.Context) (int, error)
}

// runTimeout bounds a single reconciliation pass.
const runTimeout = 5 * time.Minute

// NewScheduler returns a cron scheduler that skips a run while the
// previous one is still going.
func NewScheduler(log logrus.FieldLogger) *cron.Cron {
    return cron.New(cron.WithChain(
        cron.Recover(cronLogger{log}),
        cron.SkipIfStillRunning(cronLogger{log}),
    ))
}

// RegisterReconciler schedules ReleaseStaleRooms on schedule, a standard
// five-field cron expression.  An empty schedule disables the job.
func RegisterReconciler(c *cron.Cron, schedule string, r RoomReleaser, log logrus.FieldLogger) (cron.EntryID, error) {
    if schedule == "" {
        log.Info("room reconciler disabled")
        return 0, nil
    }
    id, err := c.AddFunc(schedule, func() { reconcileOnce(context.Background(), r, log) })
    if err != nil {
        return 0, fmt.Errorf("schedule room reconciler %q: %w", schedule, err)
    }
    log.WithField("schedule", schedule).Info("room reconciler scheduled")
    return id, nil
}

func reconcileOnce(parent context.Context, r RoomReleaser, log logrus.FieldLogger) {
    ctx, cancel := context.WithTimeout(parent, runTimeout)
    defer cancel()
    start := time.Now()
    n, err := r.ReleaseStaleRooms(ctx)
    entry := log.WithFields(logrus.Fields{"released": n, "took_ms": time.Since(start).Milliseconds()})
    if err != nil {
        entry.WithError(err).Error("room reconciliation finished with errors")
        return
    }
    entry.Info("room reconciliation done")
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct{ log logrus.FieldLogger }

func (l cronLogger) Info(msg string, kv ...interface{}) {
    l.log.WithFields(pairs(kv)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
    l.log.WithError(err).WithFields(pairs(kv)).Error("cron: " + msg)
}

func pairs(kv []interface{}) logrus.Fields {
    f := logrus.Fields{}
    for i := 0; i+1 < len(kv); i += 2 {
        f[fmt.Sprint(kv[i])] = kv[i+1]
    }
    return f
}
