package tasks

import (
	"context"

	"github.com/surrealist/surrealist/internal/scheduler"
)

const LogRotateTaskID = "log-rotate"

// Rotator starts a fresh log file.
type Rotator interface {
	Rotate() error
}

// RegisterLogRotateTask rotates the host log at midnight so each day starts
// a new surrealist.log alongside the size-based rotation.
func RegisterLogRotateTask(sched *scheduler.Scheduler, rotator Rotator) error {
	return sched.RegisterTask(LogRotateTask(rotator))
}

// LogRotateTask describes the daily rotation job.
func LogRotateTask(rotator Rotator) scheduler.TaskConfig {
	return scheduler.TaskConfig{
		ID:          LogRotateTaskID,
		Name:        "Log Rotation",
		Description: "Starts a new host log file every day",
		Cron:        "0 0 * * *",
		Func: func(context.Context) error {
			return rotator.Rotate()
		},
	}
}
