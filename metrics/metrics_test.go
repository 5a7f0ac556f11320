// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"math"
	"testing"

	"github.com/gomlx/gomlx/backends"
	_ "github.com/gomlx/gomlx/backends/simplego"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// evalScore executes fn on ground-truth and prediction data, both shaped
// dims, and returns the resulting scalar score.
func evalScore(t *testing.T, backend backends.Backend, fn ScoreFn, gtData, prData []float32, dims ...int) float32 {
	t.Helper()
	exec := MustNewExec(backend, func(gt, pr *Node) *Node {
		return fn(gt, pr)
	})
	results := exec.MustExec(
		tensors.FromFlatDataAndDimensions(gtData, dims...),
		tensors.FromFlatDataAndDimensions(prData, dims...))
	return results[0].Value().(float32)
}

// expectPanic fails the test if fn returns without panicking.
func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected a panic, got none", name)
		}
	}()
	fn()
}

// TestScoresPerfectMatch checks that identical ground truth and predictions
// of ones score exactly 1 on every metric: the smoothing constant appears in
// both the numerator and the denominator, so it cancels.
func TestScoresPerfectMatch(t *testing.T) {
	backend := backends.MustNew()
	defer backend.Finalize()

	ones := []float32{1, 1, 1, 1}
	for _, tc := range []struct {
		name string
		fn   ScoreFn
	}{
		{"IoUScore", MakeIoUScore()},
		{"F1Score", MakeF1Score()},
		{"F2Score", MakeF2Score()},
		{"DiceScore", MakeDiceScore()},
		{"Precision", MakePrecision()},
		{"Recall", MakeRecall()},
		{"IoUScore whole-batch", MakeIoUScore(PerImage(false))},
	} {
		got := evalScore(t, backend, tc.fn, ones, ones, 1, 2, 2, 1)
		if math.Abs(float64(got-1)) > 1e-6 {
			t.Errorf("%s on identical tensors of 1s = %f, want 1", tc.name, got)
		}
	}

	// Empty ground truth against empty predictions is also perfect:
	// (0+smooth)/(0+smooth) = 1.
	zeros := []float32{0, 0, 0, 0}
	got := evalScore(t, backend, MakeIoUScore(), zeros, zeros, 1, 2, 2, 1)
	if math.Abs(float64(got-1)) > 1e-6 {
		t.Errorf("IoUScore on empty masks = %f, want 1", got)
	}
}

// TestIoUScoreDisjoint checks disjoint masks: intersection is 0, so the
// score collapses to smooth/(union+smooth), and to exactly 0 without
// smoothing.
func TestIoUScoreDisjoint(t *testing.T) {
	backend := backends.MustNew()
	defer backend.Finalize()

	gt := []float32{1, 1, 0, 0}
	pr := []float32{0, 0, 1, 1}

	// intersection=0, union=4: (0+1)/(4+1) = 0.2.
	got := evalScore(t, backend, MakeIoUScore(), gt, pr, 1, 1, 4, 1)
	if math.Abs(float64(got-0.2)) > 1e-5 {
		t.Errorf("IoUScore on disjoint masks = %f, want 0.2", got)
	}

	// Without smoothing the score is exactly 0.
	got = evalScore(t, backend, MakeIoUScore(WithSmooth(0)), gt, pr, 1, 1, 4, 1)
	if math.Abs(float64(got)) > 1e-6 {
		t.Errorf("IoUScore with zero smooth on disjoint masks = %f, want 0", got)
	}
}

// TestIoUScoreKnownValue checks the IoU formula on soft predictions.
func TestIoUScoreKnownValue(t *testing.T) {
	backend := backends.MustNew()
	defer backend.Finalize()

	gt := []float32{1, 1, 0, 0}
	pr := []float32{1, 0.5, 0.5, 0}

	// intersection = 1*1 + 1*0.5 = 1.5
	// union        = (2 + 2) - 1.5 = 2.5
	// score        = (1.5+1)/(2.5+1) = 2.5/3.5
	want := float32(2.5 / 3.5)
	got := evalScore(t, backend, MakeIoUScore(), gt, pr, 1, 1, 4, 1)
	if math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("IoUScore = %f, want %f", got, want)
	}
}

// TestIoUScoreThreshold checks that thresholding binarizes predictions with
// a strict > comparison before scoring.
func TestIoUScoreThreshold(t *testing.T) {
	backend := backends.MustNew()
	defer backend.Finalize()

	gt := []float32{1, 1, 0, 0}
	pr := []float32{1, 0.5, 0.5, 0}

	// At threshold 0.5 the 0.5 entries are NOT rounded up (strict >):
	// pr -> [1,0,0,0], intersection=1, union=2, score=(1+1)/(2+1) = 2/3.
	got := evalScore(t, backend, MakeIoUScore(WithThreshold(0.5)), gt, pr, 1, 1, 4, 1)
	want := float32(2.0 / 3.0)
	if math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("IoUScore with threshold 0.5 = %f, want %f", got, want)
	}

	// At threshold 0.4 they are: pr -> [1,1,1,0], intersection=2, union=3,
	// score=(2+1)/(3+1) = 0.75.
	got = evalScore(t, backend, MakeIoUScore(WithThreshold(0.4)), gt, pr, 1, 1, 4, 1)
	if math.Abs(float64(got-0.75)) > 1e-5 {
		t.Errorf("IoUScore with threshold 0.4 = %f, want 0.75", got)
	}
}

// TestIoUScorePerImageVsWholeBatch checks the two reduction modes against
// hand-computed values that differ between them.
func TestIoUScorePerImageVsWholeBatch(t *testing.T) {
	backend := backends.MustNew()
	defer backend.Finalize()

	// Image 0: gt=[1,1], pr=[1,1] -> iou=(2+1)/(2+1)=1
	// Image 1: gt=[1,0], pr=[0,1] -> iou=(0+1)/(2+1)=1/3
	gt := []float32{1, 1, 1, 0}
	pr := []float32{1, 1, 0, 1}

	// Per image: mean(1, 1/3) = 2/3.
	got := evalScore(t, backend, MakeIoUScore(), gt, pr, 2, 1, 2, 1)
	want := float32(2.0 / 3.0)
	if math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("per-image IoUScore = %f, want %f", got, want)
	}

	// Whole batch: intersection=2, union=(3+3)-2=4, (2+1)/(4+1) = 0.6.
	got = evalScore(t, backend, MakeIoUScore(PerImage(false)), gt, pr, 2, 1, 2, 1)
	if math.Abs(float64(got-0.6)) > 1e-5 {
		t.Errorf("whole-batch IoUScore = %f, want 0.6", got)
	}
}

// TestIoUScoreClassWeights checks that class weights scale each channel's
// contribution in the final mean, without renormalization.
func TestIoUScoreClassWeights(t *testing.T) {
	backend := backends.MustNew()
	defer backend.Finalize()

	// Channels interleave in the flat layout (channels-last):
	// channel 0: gt=[1,1], pr=[1,1] -> iou=1
	// channel 1: gt=[1,0], pr=[0,0] -> iou=(0+1)/(1+1)=0.5
	gt := []float32{1, 1, 1, 0}
	pr := []float32{1, 0, 1, 0}

	// Unweighted: mean(1, 0.5) = 0.75.
	got := evalScore(t, backend, MakeIoUScore(), gt, pr, 1, 1, 2, 2)
	if math.Abs(float64(got-0.75)) > 1e-5 {
		t.Errorf("unweighted IoUScore = %f, want 0.75", got)
	}

	// Weights {1,0} silence channel 1: mean(1*1, 0.5*0) = 0.5.
	got = evalScore(t, backend, MakeIoUScore(WithClassWeights(1, 0)), gt, pr, 1, 1, 2, 2)
	if math.Abs(float64(got-0.5)) > 1e-5 {
		t.Errorf("IoUScore with weights {1,0} = %f, want 0.5", got)
	}

	// Uniform weights of 2 scale the score by 2: mean(2, 1) = 1.5.
	got = evalScore(t, backend, MakeIoUScore(WithClassWeights(2, 2)), gt, pr, 1, 1, 2, 2)
	if math.Abs(float64(got-1.5)) > 1e-5 {
		t.Errorf("IoUScore with weights {2,2} = %f, want 1.5", got)
	}
}

// TestFBetaScoreKnownValues checks the F-beta formula at beta=1 and beta=2 on the
// same soft predictions.
func TestFBetaScoreKnownValues(t *testing.T) {
	backend := backends.MustNew()
	defer backend.Finalize()

	gt := []float32{1, 1, 0, 0}
	pr := []float32{1, 0.5, 0.5, 0}

	// tp=1.5, fp=2-1.5=0.5, fn=2-1.5=0.5
	// F1 = (2*1.5+1)/(2*1.5+1*0.5+0.5+1) = 4/5 = 0.8
	got := evalScore(t, backend, MakeF1Score(), gt, pr, 1, 1, 4, 1)
	if math.Abs(float64(got-0.8)) > 1e-5 {
		t.Errorf("F1Score = %f, want 0.8", got)
	}

	// F2 = (5*1.5+1)/(5*1.5+4*0.5+0.5+1) = 8.5/11
	want := float32(8.5 / 11.0)
	got = evalScore(t, backend, F2Score, gt, pr, 1, 1, 4, 1)
	if math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("F2Score = %f, want %f", got, want)
	}
}

// TestScoreAliases checks that the alias entry points agree with their
// originals: Jaccard is IoU and Dice is F1.
func TestScoreAliases(t *testing.T) {
	backend := backends.MustNew()
	defer backend.Finalize()

	gt := []float32{1, 1, 0, 0}
	pr := []float32{1, 0.5, 0.5, 0}

	iou := evalScore(t, backend, IoUScore, gt, pr, 1, 1, 4, 1)
	jaccard := evalScore(t, backend, JaccardScore, gt, pr, 1, 1, 4, 1)
	if math.Abs(float64(iou-jaccard)) > 1e-7 {
		t.Errorf("JaccardScore = %f differs from IoUScore = %f", jaccard, iou)
	}

	f1 := evalScore(t, backend, F1Score, gt, pr, 1, 1, 4, 1)
	dice := evalScore(t, backend, DiceScore, gt, pr, 1, 1, 4, 1)
	if math.Abs(float64(f1-dice)) > 1e-7 {
		t.Errorf("DiceScore = %f differs from F1Score = %f", dice, f1)
	}
	fbeta := evalScore(t, backend, func(gtN, prN *Node) *Node { return FBetaScore(gtN, prN, 1) },
		gt, pr, 1, 1, 4, 1)
	if math.Abs(float64(f1-fbeta)) > 1e-7 {
		t.Errorf("FBetaScore(beta=1) = %f differs from F1Score = %f", fbeta, f1)
	}
}

// TestPrecisionRecallKnownValues checks precision and recall on predictions
// that cover all of the ground truth plus one extra pixel.
func TestPrecisionRecallKnownValues(t *testing.T) {
	backend := backends.MustNew()
	defer backend.Finalize()

	gt := []float32{1, 1, 0, 0}
	pr := []float32{1, 1, 1, 0}

	// tp=2, predicted mass=3, ground-truth mass=2:
	// precision = (2+1)/(3+1) = 0.75, recall = (2+1)/(2+1) = 1.
	precision := evalScore(t, backend, Precision, gt, pr, 1, 1, 4, 1)
	if math.Abs(float64(precision-0.75)) > 1e-5 {
		t.Errorf("Precision = %f, want 0.75", precision)
	}
	recall := evalScore(t, backend, Recall, gt, pr, 1, 1, 4, 1)
	if math.Abs(float64(recall-1)) > 1e-5 {
		t.Errorf("Recall = %f, want 1", recall)
	}
}

// TestScoreInputValidation checks that malformed inputs panic while the
// graph is being built.
func TestScoreInputValidation(t *testing.T) {
	backend := backends.MustNew()
	defer backend.Finalize()

	ones := func(n int) []float32 {
		data := make([]float32, n)
		for i := range data {
			data[i] = 1
		}
		return data
	}

	expectPanic(t, "shape mismatch", func() {
		exec := MustNewExec(backend, func(gt, pr *Node) *Node { return IoUScore(gt, pr) })
		exec.MustExec(
			tensors.FromFlatDataAndDimensions(ones(4), 1, 1, 4, 1),
			tensors.FromFlatDataAndDimensions(ones(2), 1, 1, 2, 1))
	})

	expectPanic(t, "rank 3 input", func() {
		exec := MustNewExec(backend, func(gt, pr *Node) *Node { return IoUScore(gt, pr) })
		exec.MustExec(
			tensors.FromFlatDataAndDimensions(ones(4), 1, 4, 1),
			tensors.FromFlatDataAndDimensions(ones(4), 1, 4, 1))
	})

	expectPanic(t, "class weights length", func() {
		fn := MakeIoUScore(WithClassWeights(1, 2, 3))
		exec := MustNewExec(backend, func(gt, pr *Node) *Node { return fn(gt, pr) })
		exec.MustExec(
			tensors.FromFlatDataAndDimensions(ones(4), 1, 1, 2, 2),
			tensors.FromFlatDataAndDimensions(ones(4), 1, 1, 2, 2))
	})

	expectPanic(t, "non-positive beta", func() {
		MakeFBetaScore(0)
	})
}
