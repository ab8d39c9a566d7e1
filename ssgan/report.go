package ssgan

import "log"

// Reporter receives training progress.
type Reporter interface {
	Batch(rec BatchRecord, epochs, batches int)
	Epoch(rec EpochRecord, epochs int)
}

// LogReporter prints progress lines through a standard logger.
type LogReporter struct {
	logger *log.Logger
}

// NewLogReporter uses the standard logger when l is nil.
func NewLogReporter(l *log.Logger) *LogReporter {
	if l == nil {
		l = log.Default()
	}
	return &LogReporter{logger: l}
}

func (r *LogReporter) Batch(rec BatchRecord, epochs, batches int) {
	r.logger.Printf("epoch [%d]/[%d] batch evaluated [%d]/[%d]", rec.Epoch, epochs, rec.Batch, batches)
}

func (r *LogReporter) Epoch(rec EpochRecord, epochs int) {
	r.logger.Printf("after epoch %d/%d: generator loss %.6f discriminator loss %.6f accuracy %.4f",
		rec.Epoch, epochs, rec.GLoss, rec.DLoss, rec.Accuracy)
}

// NopReporter discards progress.
type NopReporter struct{}

func (NopReporter) Batch(BatchRecord, int, int) {}

func (NopReporter) Epoch(EpochRecord, int) {}
