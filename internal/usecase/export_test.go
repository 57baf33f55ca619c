package usecase

import (
	"context"
	"time"
)

func (s *BackfillService) SetClock(now func() time.Time, sleep func(context.Context, time.Duration) error) {
	if now != nil {
		s.now = now
	}
	if sleep != nil {
		s.sleep = sleep
	}
}

func (s *PollerService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *PredictionService) SetClock(now func() time.Time) {
	s.now = now
}
