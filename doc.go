// Package segmetrics provides differentiable metrics and losses for semantic
// segmentation models built with GoMLX.
//
// This package covers the usual overlap statistics used to evaluate and train
// segmentation models (IoU/Jaccard, the F-beta family with Dice, F1 and F2,
// precision, recall) and the matching training losses: categorical and binary
// cross-entropy, focal losses, the complement (1 - score) losses (Jaccard
// loss, Dice loss) and their additive combinations.
//
// # Architecture
//
// The package is organized into two sub-packages:
//
//   - metrics: overlap score functions (IoU/Jaccard, F-beta/Dice, precision,
//     recall) with per-class weighting, smoothing, prediction thresholding and
//     per-image vs whole-batch reduction.
//   - losses: training losses with the GoMLX trainer signature, including
//     cross-entropies, focal losses and score-derived losses.
//
// Everything is plain graph composition: each function takes ground-truth and
// prediction nodes of shape (batch, height, width, channels) and returns a
// scalar node. The numeric work (elementwise arithmetic, clipping,
// logarithms, reductions) runs on whatever GoMLX backend executes the graph,
// and gradients come from GoMLX's autodiff, so every loss here can be used
// directly for training.
//
// # Usage
//
//	import (
//		"github.com/gomlx/segmetrics/losses"
//		"github.com/gomlx/segmetrics/metrics"
//	)
//
//	// As a metric, with predictions binarized at 0.5:
//	iou := metrics.MakeIoUScore(metrics.WithThreshold(0.5))
//	score := iou(groundTruth, predictions)
//
//	// As a training loss, pluggable into a GoMLX trainer:
//	lossFn := losses.MakeBCEJaccardLoss()
//	loss := lossFn([]*graph.Node{groundTruth}, []*graph.Node{predictions})
//
// Ground truth and predictions hold values in [0, 1]: probabilities or binary
// labels, one channel per class.
package segmetrics
