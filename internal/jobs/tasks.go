// Package jobs runs background work over asynq: the daily card broadcast and
// scheduled deck reloads.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeDailyCard  = "card:daily"
	TaskTypeDeckReload = "deck:reload"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// DailyCardPayload identifies the broadcast day so reruns stay idempotent.
type DailyCardPayload struct {
	Date string `json:"date"`
}

type DeckReloadPayload struct {
	Reason string `json:"reason"`
}

func NewDailyCardTask(date string) (*asynq.Task, error) {
	payload, err := json.Marshal(DailyCardPayload{Date: date})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeDailyCard, payload, asynq.Queue(QueueDefault)), nil
}

func NewDeckReloadTask(reason string) (*asynq.Task, error) {
	payload, err := json.Marshal(DeckReloadPayload{Reason: reason})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeDeckReload, payload, asynq.Queue(QueueLow)), nil
}
