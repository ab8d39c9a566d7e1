package ssgan

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/fumitoshi0524/ssgan/tensor"
)

// ConfusionMatrix counts (true class, predicted class) pairs over K classes.
type ConfusionMatrix struct {
	classes int
	counts  [][]int
	total   int
}

func NewConfusionMatrix(classes int) *ConfusionMatrix {
	counts := make([][]int, classes)
	for i := range counts {
		counts[i] = make([]int, classes)
	}
	return &ConfusionMatrix{classes: classes, counts: counts}
}

func (cm *ConfusionMatrix) Add(trueClass, predicted int) error {
	if trueClass < 0 || trueClass >= cm.classes || predicted < 0 || predicted >= cm.classes {
		return errors.Errorf("class pair (%d, %d) outside [0, %d)", trueClass, predicted, cm.classes)
	}
	cm.counts[trueClass][predicted]++
	cm.total++
	return nil
}

func (cm *ConfusionMatrix) Classes() int { return cm.classes }

func (cm *ConfusionMatrix) Total() int { return cm.total }

// Count returns how many examples of trueClass were predicted as predicted.
func (cm *ConfusionMatrix) Count(trueClass, predicted int) int {
	return cm.counts[trueClass][predicted]
}

func (cm *ConfusionMatrix) Accuracy() float64 {
	if cm.total == 0 {
		return 0
	}
	correct := 0
	for i := 0; i < cm.classes; i++ {
		correct += cm.counts[i][i]
	}
	return float64(correct) / float64(cm.total)
}

// Recall is the fraction of class examples predicted as that class.
func (cm *ConfusionMatrix) Recall(class int) float64 {
	row := 0
	for _, n := range cm.counts[class] {
		row += n
	}
	if row == 0 {
		return 0
	}
	return float64(cm.counts[class][class]) / float64(row)
}

// Precision is the fraction of predictions of class that were correct.
func (cm *ConfusionMatrix) Precision(class int) float64 {
	col := 0
	for i := 0; i < cm.classes; i++ {
		col += cm.counts[i][class]
	}
	if col == 0 {
		return 0
	}
	return float64(cm.counts[class][class]) / float64(col)
}

func (cm *ConfusionMatrix) String() string {
	var b strings.Builder
	b.WriteString("true\\pred")
	for j := 0; j < cm.classes; j++ {
		fmt.Fprintf(&b, "\t%d", j)
	}
	b.WriteString("\trecall\n")
	for i := 0; i < cm.classes; i++ {
		fmt.Fprintf(&b, "%d", i)
		for j := 0; j < cm.classes; j++ {
			fmt.Fprintf(&b, "\t%d", cm.counts[i][j])
		}
		fmt.Fprintf(&b, "\t%.3f\n", cm.Recall(i))
	}
	return b.String()
}

// Evaluate runs d in inference mode on x with [N, K] one-hot labels and
// tallies the predictions.
func Evaluate(d Discriminator, x, labels *tensor.Tensor) (*ConfusionMatrix, error) {
	extended, err := ExtendLabels(labels)
	if err != nil {
		return nil, err
	}
	_, predicted, err := Accuracy(d, x, extended, false)
	if err != nil {
		return nil, err
	}
	k := d.Classes()
	cm := NewConfusionMatrix(k)
	values := labels.Data()
	for i, p := range predicted {
		if err := cm.Add(floats.MaxIdx(values[i*k:(i+1)*k]), p); err != nil {
			return nil, err
		}
	}
	return cm, nil
}
