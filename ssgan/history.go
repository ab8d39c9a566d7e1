package ssgan

// Metric names used by History.Metrics.
const (
	MetricDLoss    = "D_losses"
	MetricGLoss    = "G_losses"
	MetricAccuracy = "accuracy"
)

// BatchRecord is what one training batch produced.
type BatchRecord struct {
	Epoch    int
	Batch    int
	DLoss    float64
	GLoss    float64
	Accuracy float64
	// Labeled is how many examples fed the supervised term.
	Labeled int
}

// EpochRecord holds the means of an epoch's batch records.
type EpochRecord struct {
	Epoch    int
	DLoss    float64
	GLoss    float64
	Accuracy float64
}

// History is the per-epoch record of a run, in epoch order.
type History struct {
	Records []EpochRecord
}

// Metrics returns each metric as a per-epoch series.
func (h *History) Metrics() map[string][]float64 {
	out := map[string][]float64{
		MetricDLoss:    make([]float64, len(h.Records)),
		MetricGLoss:    make([]float64, len(h.Records)),
		MetricAccuracy: make([]float64, len(h.Records)),
	}
	for i, r := range h.Records {
		out[MetricDLoss][i] = r.DLoss
		out[MetricGLoss][i] = r.GLoss
		out[MetricAccuracy][i] = r.Accuracy
	}
	return out
}

func (h *History) Len() int {
	return len(h.Records)
}

// Last returns the most recent epoch, if any.
func (h *History) Last() (EpochRecord, bool) {
	if len(h.Records) == 0 {
		return EpochRecord{}, false
	}
	return h.Records[len(h.Records)-1], true
}
