package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ds124wfegd/WB_L3/interview/internal/service"
)

// SlotRetireWorker periodically cancels AVAILABLE slots whose start time has
// passed.
type SlotRetireWorker struct {
	slotService service.SlotService
	interval    time.Duration
	batchSize   int
}

func NewSlotRetireWorker(slotService service.SlotService, interval time.Duration, batchSize int) *SlotRetireWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SlotRetireWorker{
		slotService: slotService,
		interval:    interval,
		batchSize:   batchSize,
	}
}

func (w *SlotRetireWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithField("interval", w.interval).Info("Slot retire worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Slot retire worker stopped")
			return
		case <-ticker.C:
			w.retire(ctx)
		}
	}
}

func (w *SlotRetireWorker) retire(ctx context.Context) int {
	retired, err := w.slotService.RetirePastSlots(ctx, w.batchSize)
	if err != nil {
		logrus.WithError(err).WithField("retired", retired).Error("Failed to retire past slots")
		return retired
	}
	if retired > 0 {
		logrus.WithField("retired", retired).Info("Past slots retired")
	}
	return retired
}
