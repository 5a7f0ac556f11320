// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"github.com/gomlx/exceptions"

	. "github.com/gomlx/gomlx/pkg/core/graph"
)

// IoUScore computes the intersection-over-union score between the ground
// truth and the predictions with the default settings: smoothing of Smooth,
// per-image scoring, no thresholding, uniform class weights.
//
// See MakeIoUScore to configure it.
func IoUScore(gt, pr *Node) *Node {
	return MakeIoUScore()(gt, pr)
}

// MakeIoUScore returns a ScoreFn computing the intersection-over-union score,
// also known as the Jaccard index:
//
//	intersection = sum(gt*pr)
//	union        = sum(gt+pr) - intersection
//	score        = (intersection + smooth) / (union + smooth)
//
// with the sums taken over the reduction axes, followed by the batch mean (in
// per-image mode) and the class-weighted mean.
func MakeIoUScore(opts ...Option) ScoreFn {
	c := newConfig(opts...)
	return func(gt, pr *Node) *Node {
		gt, pr = c.prepare("IoUScore", gt, pr)
		axes := c.reductionAxes()
		intersection := ReduceSum(Mul(gt, pr), axes...)
		union := Sub(ReduceSum(Add(gt, pr), axes...), intersection)
		score := Div(AddScalar(intersection, c.smooth), AddScalar(union, c.smooth))
		return c.finalize(score)
	}
}

// JaccardScore is another name for IoUScore.
func JaccardScore(gt, pr *Node) *Node {
	return IoUScore(gt, pr)
}

// MakeJaccardScore is another name for MakeIoUScore.
func MakeJaccardScore(opts ...Option) ScoreFn {
	return MakeIoUScore(opts...)
}

// FBetaScore computes the F-beta score between the ground truth and the
// predictions with the default settings. See MakeFBetaScore.
func FBetaScore(gt, pr *Node, beta float64) *Node {
	return MakeFBetaScore(beta)(gt, pr)
}

// MakeFBetaScore returns a ScoreFn computing the F-beta score, stated in
// terms of true positives, false positives and false negatives:
//
//	tp    = sum(gt*pr)
//	fp    = sum(pr) - tp
//	fn    = sum(gt) - tp
//	score = ((1+beta^2)*tp + smooth) / ((1+beta^2)*tp + beta^2*fn + fp + smooth)
//
// beta weighs recall against precision: beta>1 favors recall, beta<1 favors precision.
// At beta=1 this is the Dice coefficient.
func MakeFBetaScore(beta float64, opts ...Option) ScoreFn {
	if beta <= 0 {
		exceptions.Panicf("MakeFBetaScore requires beta > 0 (1.0 being the usual choice), beta=%g given", beta)
	}
	c := newConfig(opts...)
	beta2 := beta * beta
	return func(gt, pr *Node) *Node {
		gt, pr = c.prepare("FBetaScore", gt, pr)
		axes := c.reductionAxes()
		tp := ReduceSum(Mul(gt, pr), axes...)
		fp := Sub(ReduceSum(pr, axes...), tp)
		fn := Sub(ReduceSum(gt, axes...), tp)
		numerator := AddScalar(MulScalar(tp, 1+beta2), c.smooth)
		denominator := AddScalar(Add(Add(MulScalar(tp, 1+beta2), MulScalar(fn, beta2)), fp), c.smooth)
		return c.finalize(Div(numerator, denominator))
	}
}

// F1Score computes the F-beta score at beta=1 with the default settings.
func F1Score(gt, pr *Node) *Node {
	return MakeF1Score()(gt, pr)
}

// MakeF1Score returns a ScoreFn computing the F-beta score at beta=1.
func MakeF1Score(opts ...Option) ScoreFn {
	return MakeFBetaScore(1, opts...)
}

// F2Score computes the F-beta score at beta=2, weighing recall twice as high as
// precision, with the default settings.
func F2Score(gt, pr *Node) *Node {
	return MakeF2Score()(gt, pr)
}

// MakeF2Score returns a ScoreFn computing the F-beta score at beta=2.
func MakeF2Score(opts ...Option) ScoreFn {
	return MakeFBetaScore(2, opts...)
}

// DiceScore is another name for F1Score: the Dice coefficient equals the
// F-beta score at beta=1.
func DiceScore(gt, pr *Node) *Node {
	return F1Score(gt, pr)
}

// MakeDiceScore is another name for MakeF1Score.
func MakeDiceScore(opts ...Option) ScoreFn {
	return MakeF1Score(opts...)
}

// Precision computes the fraction of the predicted mass that hits the ground
// truth, (tp+smooth)/(tp+fp+smooth), with the default settings.
func Precision(gt, pr *Node) *Node {
	return MakePrecision()(gt, pr)
}

// MakePrecision returns a ScoreFn computing (tp+smooth)/(tp+fp+smooth),
// where tp+fp is simply the total predicted mass sum(pr).
func MakePrecision(opts ...Option) ScoreFn {
	c := newConfig(opts...)
	return func(gt, pr *Node) *Node {
		gt, pr = c.prepare("Precision", gt, pr)
		axes := c.reductionAxes()
		tp := ReduceSum(Mul(gt, pr), axes...)
		predicted := ReduceSum(pr, axes...)
		score := Div(AddScalar(tp, c.smooth), AddScalar(predicted, c.smooth))
		return c.finalize(score)
	}
}

// Recall computes the fraction of the ground-truth mass that the predictions
// recover, (tp+smooth)/(tp+fn+smooth), with the default settings.
func Recall(gt, pr *Node) *Node {
	return MakeRecall()(gt, pr)
}

// MakeRecall returns a ScoreFn computing (tp+smooth)/(tp+fn+smooth), where
// tp+fn is the total ground-truth mass sum(gt).
func MakeRecall(opts ...Option) ScoreFn {
	c := newConfig(opts...)
	return func(gt, pr *Node) *Node {
		gt, pr = c.prepare("Recall", gt, pr)
		axes := c.reductionAxes()
		tp := ReduceSum(Mul(gt, pr), axes...)
		actual := ReduceSum(gt, axes...)
		score := Div(AddScalar(tp, c.smooth), AddScalar(actual, c.smooth))
		return c.finalize(score)
	}
}
