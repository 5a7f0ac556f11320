// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package losses

import (
	. "github.com/gomlx/gomlx/pkg/core/graph"

	"github.com/gomlx/segmetrics/metrics"
)

// JaccardLoss returns 1 - IoU score with the metric defaults. See
// MakeJaccardLoss.
func JaccardLoss(labels, predictions []*Node) *Node {
	return MakeJaccardLoss()(labels, predictions)
}

// MakeJaccardLoss returns a LossFn computing 1 - IoU score, the
// complement of the intersection-over-union metric, which directly optimizes
// region overlap. The options are forwarded to metrics.MakeIoUScore; avoid
// metrics.WithThreshold here, thresholding has no useful gradient.
func MakeJaccardLoss(opts ...metrics.Option) LossFn {
	score := metrics.MakeIoUScore(opts...)
	return func(labels, predictions []*Node) *Node {
		gt, pr := checkLabelsAndPredictions("JaccardLoss", labels, predictions)
		return OneMinus(score(gt, pr))
	}
}

// DiceLoss returns 1 - F1 (Dice) score with the metric defaults. See
// MakeDiceLoss.
func DiceLoss(labels, predictions []*Node) *Node {
	return MakeDiceLoss()(labels, predictions)
}

// MakeDiceLoss returns a LossFn computing 1 - F1 score, the complement of the
// Dice coefficient. The options are forwarded to metrics.MakeF1Score; avoid
// metrics.WithThreshold here, thresholding has no useful gradient.
func MakeDiceLoss(opts ...metrics.Option) LossFn {
	score := metrics.MakeF1Score(opts...)
	return func(labels, predictions []*Node) *Node {
		gt, pr := checkLabelsAndPredictions("DiceLoss", labels, predictions)
		return OneMinus(score(gt, pr))
	}
}

// BCEJaccardLoss returns BinaryCrossentropy + JaccardLoss with the defaults.
// See MakeBCEJaccardLoss.
func BCEJaccardLoss(labels, predictions []*Node) *Node {
	return MakeBCEJaccardLoss()(labels, predictions)
}

// MakeBCEJaccardLoss returns a LossFn computing the sum of the binary
// cross-entropy and the Jaccard loss: the cross-entropy term keeps gradients
// well-behaved everywhere while the overlap term optimizes the evaluation
// metric. The options configure the Jaccard term.
func MakeBCEJaccardLoss(opts ...metrics.Option) LossFn {
	jaccard := MakeJaccardLoss(opts...)
	return func(labels, predictions []*Node) *Node {
		return Add(
			BinaryCrossentropy(labels, predictions),
			jaccard(labels, predictions))
	}
}

// BCEDiceLoss returns BinaryCrossentropy + DiceLoss with the defaults. See
// MakeBCEDiceLoss.
func BCEDiceLoss(labels, predictions []*Node) *Node {
	return MakeBCEDiceLoss()(labels, predictions)
}

// MakeBCEDiceLoss returns a LossFn computing the sum of the binary
// cross-entropy and the Dice loss. The options configure the Dice term.
func MakeBCEDiceLoss(opts ...metrics.Option) LossFn {
	dice := MakeDiceLoss(opts...)
	return func(labels, predictions []*Node) *Node {
		return Add(
			BinaryCrossentropy(labels, predictions),
			dice(labels, predictions))
	}
}

// CCEJaccardLoss returns CategoricalCrossentropy + JaccardLoss with the
// defaults. See MakeCCEJaccardLoss.
func CCEJaccardLoss(labels, predictions []*Node) *Node {
	return MakeCCEJaccardLoss(nil)(labels, predictions)
}

// MakeCCEJaccardLoss returns a LossFn computing the sum of the categorical
// cross-entropy and the Jaccard loss, for softmax-activated channels.
// classWeights (may be nil) configure the cross-entropy term, the options
// the Jaccard term.
func MakeCCEJaccardLoss(classWeights []float64, opts ...metrics.Option) LossFn {
	cce := MakeCategoricalCrossentropy(classWeights...)
	jaccard := MakeJaccardLoss(opts...)
	return func(labels, predictions []*Node) *Node {
		return Add(
			cce(labels, predictions),
			jaccard(labels, predictions))
	}
}

// CCEDiceLoss returns CategoricalCrossentropy + DiceLoss with the defaults.
// See MakeCCEDiceLoss.
func CCEDiceLoss(labels, predictions []*Node) *Node {
	return MakeCCEDiceLoss(nil)(labels, predictions)
}

// MakeCCEDiceLoss returns a LossFn computing the sum of the categorical
// cross-entropy and the Dice loss, for softmax-activated channels.
// classWeights (may be nil) configure the cross-entropy term, the options
// the Dice term.
func MakeCCEDiceLoss(classWeights []float64, opts ...metrics.Option) LossFn {
	cce := MakeCategoricalCrossentropy(classWeights...)
	dice := MakeDiceLoss(opts...)
	return func(labels, predictions []*Node) *Node {
		return Add(
			cce(labels, predictions),
			dice(labels, predictions))
	}
}
