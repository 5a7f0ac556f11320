// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package losses implements training losses for semantic segmentation models:
// categorical and binary cross-entropy, focal losses, the complement
// (1 - score) losses derived from the overlap metrics (Jaccard loss, Dice
// loss) and additive combinations of the two families.
//
// Every loss has the signature GoMLX trainers expect,
// func(labels, predictions []*Node) *Node, and returns a scalar. labels[0]
// holds the ground truth and predictions[0] the predicted probabilities, both
// shaped (batch, height, width, channels) with values in [0, 1]. Losses here
// take per-class weighting through their constructors, so extra entries in
// either slice are rejected.
//
// Losses can also be selected and configured through context hyperparameters,
// see FromContext.
package losses

import (
	"github.com/gomlx/exceptions"

	"github.com/gomlx/gomlx/pkg/core/dtypes"
	. "github.com/gomlx/gomlx/pkg/core/graph"
)

// LossFn is the loss signature used by GoMLX trainers: labels come from the
// dataset, predictions from the model. The losses in this package always
// return a scalar.
//
// A LossFn is immutable and safe for concurrent use from multiple goroutines
// building different graphs.
type LossFn func(labels, predictions []*Node) (loss *Node)

// Epsilon constants used to clip predictions away from 0 and 1 before taking
// logarithms, per dtype.
const (
	Epsilon16 = 1e-4
	Epsilon32 = 1e-7
	Epsilon64 = 1e-8
)

// Focal loss defaults, as given in the focal loss paper.
const (
	DefaultFocalGamma = 2.0
	DefaultFocalAlpha = 0.25
)

func epsilonForDType(g *Graph, dtype dtypes.DType) *Node {
	var epsilon float64
	switch dtype {
	case dtypes.Float64:
		epsilon = Epsilon64
	case dtypes.Float32:
		epsilon = Epsilon32
	case dtypes.Float16, dtypes.BFloat16:
		epsilon = Epsilon16
	default:
		exceptions.Panicf("no epsilon value for dtype %s", dtype)
	}
	return Scalar(g, dtype, epsilon)
}

// clipEpsilon bounds the predictions to [epsilon, 1-epsilon] so the
// logarithms that follow stay finite. Written as Min+Max rather than Clip,
// which lowers to Clamp and has no gradient defined.
func clipEpsilon(pr *Node) *Node {
	epsilon := epsilonForDType(pr.Graph(), pr.DType())
	return Min(Max(pr, epsilon), OneMinus(epsilon))
}

// checkLabelsAndPredictions extracts the ground-truth and prediction nodes,
// converting the ground truth to the predictions' dtype. It panics on extra
// entries in either slice or on shape disagreement.
func checkLabelsAndPredictions(name string, labels, predictions []*Node) (gt, pr *Node) {
	if len(labels) != 1 || len(predictions) != 1 {
		exceptions.Panicf("%s: expects exactly one labels and one predictions tensor, got %d and %d"+
			" -- per-class weighting is configured through the loss constructors, not through extra labels",
			name, len(labels), len(predictions))
	}
	pr = predictions[0]
	if !pr.DType().IsFloat() {
		exceptions.Panicf("%s: predictions must be float, got %s", name, pr.DType())
	}
	gt = ConvertDType(labels[0], pr.DType())
	if !gt.Shape().Equal(pr.Shape()) {
		exceptions.Panicf("%s: labels[0] (%s) and predictions[0] (%s) must have same shape",
			name, gt.Shape(), pr.Shape())
	}
	return gt, pr
}

// CategoricalCrossentropy returns the multi-class cross-entropy between the
// ground-truth distribution and the predicted probabilities, with uniform
// class weights. See MakeCategoricalCrossentropy.
func CategoricalCrossentropy(labels, predictions []*Node) *Node {
	return MakeCategoricalCrossentropy()(labels, predictions)
}

// MakeCategoricalCrossentropy returns a LossFn computing the multi-class
// cross-entropy -mean(gt*log(pr)*weights): the predictions are first
// normalized to sum to 1 over the channel axis and clipped away from 0 and 1,
// and the mean runs over every element of the weighted product.
//
// classWeights, when given, must have one entry per channel. They scale each
// channel's contribution without renormalization, so uniform weights of w
// scale the loss by w.
func MakeCategoricalCrossentropy(classWeights ...float64) LossFn {
	return func(labels, predictions []*Node) *Node {
		gt, pr := checkLabelsAndPredictions("CategoricalCrossentropy", labels, predictions)
		if classWeights != nil {
			numClasses := pr.Shape().Dimensions[pr.Rank()-1]
			if len(classWeights) != numClasses {
				exceptions.Panicf("CategoricalCrossentropy: %d class weights given for %d channels",
					len(classWeights), numClasses)
			}
		}

		// Scale predictions so the class probabilities of each element sum to 1,
		// then clip to keep the log finite.
		pr = Div(pr, ReduceAndKeep(pr, ReduceSum, -1))
		pr = clipEpsilon(pr)

		loss := Mul(gt, Log(pr))
		if classWeights != nil {
			weights := ConstAsDType(pr.Graph(), pr.DType(), classWeights)
			expandAxes := make([]int, pr.Rank()-1) // all zeros: insert leading axes
			weights = BroadcastToShape(InsertAxes(weights, expandAxes...), loss.Shape())
			loss = Mul(loss, weights)
		}
		return Neg(ReduceAllMean(loss))
	}
}

// BinaryCrossentropy returns the mean elementwise binary cross-entropy
// -mean(gt*log(pr) + (1-gt)*log(1-pr)), with the predictions clipped away
// from 0 and 1 so the logs stay finite.
func BinaryCrossentropy(labels, predictions []*Node) *Node {
	gt, pr := checkLabelsAndPredictions("BinaryCrossentropy", labels, predictions)
	pr = clipEpsilon(pr)
	losses := Neg(Add(
		Mul(gt, Log(pr)),
		Mul(OneMinus(gt), Log(OneMinus(pr)))))
	return ReduceAllMean(losses)
}

// CategoricalFocalLoss returns the focal loss for multi-class classification
// with the default gamma=2 and alpha=0.25. See MakeCategoricalFocalLoss.
func CategoricalFocalLoss(labels, predictions []*Node) *Node {
	return MakeCategoricalFocalLoss(DefaultFocalGamma, DefaultFocalAlpha)(labels, predictions)
}

// MakeCategoricalFocalLoss returns a LossFn computing the focal loss for
// multi-class classification:
//
//	loss = -mean(alpha*gt*(1-pr)^gamma*log(pr))
//
// The (1-pr)^gamma factor down-weights well-classified elements so training
// focuses on the hard ones; alpha balances the overall contribution of the
// positive class. Predictions are clipped away from 0 and 1 before the log.
func MakeCategoricalFocalLoss(gamma, alpha float64) LossFn {
	if gamma < 0 {
		exceptions.Panicf("MakeCategoricalFocalLoss requires gamma >= 0 (2.0 being the usual choice), gamma=%g given", gamma)
	}
	if alpha <= 0 {
		exceptions.Panicf("MakeCategoricalFocalLoss requires alpha > 0 (0.25 being the usual choice), alpha=%g given", alpha)
	}
	return func(labels, predictions []*Node) *Node {
		gt, pr := checkLabelsAndPredictions("CategoricalFocalLoss", labels, predictions)
		g := pr.Graph()
		dtype := pr.DType()
		pr = clipEpsilon(pr)

		crossEntropy := Neg(Mul(gt, Log(pr)))
		modulation := MulScalar(Pow(OneMinus(pr), Scalar(g, dtype, gamma)), alpha)
		return ReduceAllMean(Mul(modulation, crossEntropy))
	}
}

// FocalLoss returns the symmetric focal loss with the default gamma=2 and
// alpha=0.25. See MakeFocalLoss.
func FocalLoss(labels, predictions []*Node) *Node {
	return MakeFocalLoss(DefaultFocalGamma, DefaultFocalAlpha)(labels, predictions)
}

// MakeFocalLoss returns a LossFn computing the symmetric focal loss: the
// categorical focal term on (gt, pr) plus the same term on (1-gt, 1-pr), so
// both the positive and the negative side of each channel are focused. This
// is the form to use with binary (sigmoid) channel activations, where the
// channels don't compete for probability mass.
func MakeFocalLoss(gamma, alpha float64) LossFn {
	focal := MakeCategoricalFocalLoss(gamma, alpha)
	return func(labels, predictions []*Node) *Node {
		gt, pr := checkLabelsAndPredictions("FocalLoss", labels, predictions)
		positive := focal([]*Node{gt}, []*Node{pr})
		negative := focal([]*Node{OneMinus(gt)}, []*Node{OneMinus(pr)})
		return Add(positive, negative)
	}
}
