// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package metrics implements differentiable overlap scores for semantic
// segmentation: IoU/Jaccard, the F-beta family (F1, F2, Dice), precision and
// recall.
//
// All scores share the same pipeline:
//
//  1. select the reduction axes: the spatial axes when scoring per image,
//     batch plus spatial axes when scoring the whole batch as one aggregate;
//  2. optionally binarize the predictions at a threshold (strict >);
//  3. compute the closed-form statistic over the reduction axes;
//  4. in per-image mode average the scores over the batch, then take the
//     class-weighted mean.
//
// Inputs are ground-truth and prediction nodes shaped
// (batch, height, width, channels) with values in [0, 1], probabilities or
// binary labels, one channel per class. Results are scalar nodes in [0, 1].
//
// Scores are built from differentiable graph operations only (except for the
// optional thresholding step), so they can double as training objectives;
// the losses package provides ready-made (1 - score) losses on top of them.
package metrics

import (
	"github.com/gomlx/exceptions"

	. "github.com/gomlx/gomlx/pkg/core/graph"
)

// Smooth is the default smoothing constant added to the numerator and the
// denominator of every score, so that empty ground truth scored against empty
// predictions yields a perfect score instead of 0/0.
const Smooth = 1.0

// ScoreFn computes a scalar score in [0, 1] from ground-truth and prediction
// nodes shaped (batch, height, width, channels).
//
// A ScoreFn is immutable and safe for concurrent use from multiple goroutines
// building different graphs.
type ScoreFn func(gt, pr *Node) *Node

// config holds the settings shared by all scores. It is only created through
// newConfig, which applies the defaults.
type config struct {
	classWeights []float64
	smooth       float64
	perImage     bool
	threshold    float64
	hasThreshold bool
}

// Option configures a score created by one of the Make* constructors.
type Option func(*config)

// WithClassWeights sets per-class weights applied in the final mean over
// classes: the result is mean(score*weights), deliberately not normalized by
// the sum of the weights, so uniform weights of w scale the score by w.
// len(weights) must equal the channel dimension of the scored tensors.
func WithClassWeights(weights ...float64) Option {
	return func(c *config) {
		c.classWeights = weights
	}
}

// WithSmooth sets the smoothing constant added to the numerator and the
// denominator of the score. The default is Smooth.
func WithSmooth(smooth float64) Option {
	return func(c *config) {
		c.smooth = smooth
	}
}

// WithThreshold binarizes the predictions before scoring: values strictly
// greater than threshold become 1, everything else 0. By default predictions
// are scored as given.
//
// The comparison is a step function with zero gradient almost everywhere, so
// thresholded scores are meant for evaluation, not as training objectives.
func WithThreshold(threshold float64) Option {
	return func(c *config) {
		c.threshold = threshold
		c.hasThreshold = true
	}
}

// PerImage selects between scoring each image separately and averaging the
// scores over the batch (true, the default), or treating the whole batch as
// one aggregate (false).
func PerImage(enabled bool) Option {
	return func(c *config) {
		c.perImage = enabled
	}
}

func newConfig(opts ...Option) *config {
	c := &config{
		smooth:   Smooth,
		perImage: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// prepare validates the inputs and applies the steps common to every score:
// the ground truth is converted to the predictions' dtype and the predictions
// are binarized if a threshold was configured.
//
// It panics if pr is not a float node, if gt and pr disagree in shape, if
// they are not rank-4 (batch, height, width, channels), or if the configured
// class weights don't match the channel dimension.
func (c *config) prepare(name string, gt, pr *Node) (gtOut, prOut *Node) {
	if !pr.DType().IsFloat() {
		exceptions.Panicf("%s: predictions must be float, got %s", name, pr.DType())
	}
	gt = ConvertDType(gt, pr.DType())
	if !gt.Shape().Equal(pr.Shape()) {
		exceptions.Panicf("%s: gt (%s) and pr (%s) must have the same shape", name, gt.Shape(), pr.Shape())
	}
	if gt.Rank() != 4 {
		exceptions.Panicf("%s: gt and pr must be shaped (batch, height, width, channels), got %s", name, gt.Shape())
	}
	if c.classWeights != nil {
		numClasses := pr.Shape().Dimensions[pr.Rank()-1]
		if len(c.classWeights) != numClasses {
			exceptions.Panicf("%s: %d class weights given for %d channels", name, len(c.classWeights), numClasses)
		}
	}
	if c.hasThreshold {
		pr = ConvertDType(GreaterThan(pr, Scalar(pr.Graph(), pr.DType(), c.threshold)), pr.DType())
	}
	return gt, pr
}

// reductionAxes returns the axes the statistic sums over: the spatial axes
// (height, width) in per-image mode, batch plus spatial axes otherwise. The
// channel axis is never reduced here.
func (c *config) reductionAxes() []int {
	if c.perImage {
		return []int{1, 2}
	}
	return []int{0, 1, 2}
}

// finalize reduces the per-class score (shaped (batch, channels) in
// per-image mode, (channels) otherwise) to the final scalar: batch mean if
// needed, then the class-weighted mean.
func (c *config) finalize(score *Node) *Node {
	if c.perImage {
		score = ReduceMean(score, 0)
	}
	if c.classWeights != nil {
		score = Mul(score, ConstAsDType(score.Graph(), score.DType(), c.classWeights))
	}
	return ReduceAllMean(score)
}
