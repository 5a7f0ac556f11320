// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package losses

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/pkg/errors"

	"github.com/gomlx/segmetrics/metrics"
)

// Hyperparameters read by FromContext. Values are set with
// context.Context.SetParam and read with context.GetParamOr, so they can be
// configured globally or per scope like any other GoMLX hyperparameter.
const (
	// ParamLoss selects the loss to build (a string, see Type for the accepted
	// names). Defaults to "bce_jaccard".
	ParamLoss = "segmetrics_loss"

	// ParamFocalGamma is the focusing parameter gamma of the focal losses
	// (a float64, defaults to DefaultFocalGamma).
	ParamFocalGamma = "segmetrics_focal_gamma"

	// ParamFocalAlpha is the balancing parameter alpha of the focal losses
	// (a float64, defaults to DefaultFocalAlpha).
	ParamFocalAlpha = "segmetrics_focal_alpha"

	// ParamSmooth is the smoothing constant of the score-derived losses
	// (a float64, defaults to metrics.Smooth).
	ParamSmooth = "segmetrics_smooth"

	// ParamPerImage selects per-image scoring for the score-derived losses
	// (a bool, defaults to true).
	ParamPerImage = "segmetrics_per_image"

	// ParamThreshold binarizes predictions in the score-derived losses when
	// set to a value >= 0 (a float64, defaults to -1, disabled). Thresholding
	// kills the gradient, so this is only useful when the built LossFn serves
	// as an evaluation metric.
	ParamThreshold = "segmetrics_threshold"
)

// Type is an enumeration of the losses FromContext can build.
type Type int

const (
	// TypeBinaryCrossentropy represents BinaryCrossentropy.
	TypeBinaryCrossentropy Type = iota

	// TypeCategoricalCrossentropy represents CategoricalCrossentropy.
	TypeCategoricalCrossentropy

	// TypeCategoricalFocal represents CategoricalFocalLoss, see
	// MakeCategoricalFocalLoss.
	TypeCategoricalFocal

	// TypeFocal represents the symmetric FocalLoss, see MakeFocalLoss.
	TypeFocal

	// TypeJaccard represents JaccardLoss (1 - IoU).
	TypeJaccard

	// TypeDice represents DiceLoss (1 - F1).
	TypeDice

	// TypeBCEJaccard represents BCEJaccardLoss.
	TypeBCEJaccard

	// TypeBCEDice represents BCEDiceLoss.
	TypeBCEDice

	// TypeCCEJaccard represents CCEJaccardLoss.
	TypeCCEJaccard

	// TypeCCEDice represents CCEDiceLoss.
	TypeCCEDice
)

var typeNames = [...]string{
	TypeBinaryCrossentropy:      "binary_crossentropy",
	TypeCategoricalCrossentropy: "categorical_crossentropy",
	TypeCategoricalFocal:        "categorical_focal",
	TypeFocal:                   "focal",
	TypeJaccard:                 "jaccard",
	TypeDice:                    "dice",
	TypeBCEJaccard:              "bce_jaccard",
	TypeBCEDice:                 "bce_dice",
	TypeCCEJaccard:              "cce_jaccard",
	TypeCCEDice:                 "cce_dice",
}

// String implements fmt.Stringer, returning the name ParamLoss accepts for
// this type.
func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// TypeString parses a loss name back to its Type. It is the inverse of
// Type.String.
func TypeString(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return Type(t), nil
		}
	}
	return 0, errors.Errorf("%q does not name a loss Type", name)
}

// TypeStrings returns the names of all loss types accepted by ParamLoss.
func TypeStrings() []string {
	return slices.Clone(typeNames[:])
}

// FromContext builds the loss selected by the ParamLoss hyperparameter,
// configured by the other Param* hyperparameters. It defaults to
// "bce_jaccard", the usual all-round choice for binary segmentation.
//
// It returns an error if the configured loss name is unknown.
func FromContext(ctx *context.Context) (LossFn, error) {
	lossName := context.GetParamOr(ctx, ParamLoss, TypeBCEJaccard.String())
	lossType, err := TypeString(lossName)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid value %q for hyperparameter %q, known losses are: \"%s\"",
			lossName, ParamLoss, strings.Join(TypeStrings(), "\", \""))
	}
	switch lossType {
	case TypeBinaryCrossentropy:
		return BinaryCrossentropy, nil
	case TypeCategoricalCrossentropy:
		return CategoricalCrossentropy, nil
	case TypeCategoricalFocal:
		return MakeCategoricalFocalLossFromContext(ctx), nil
	case TypeFocal:
		return MakeFocalLossFromContext(ctx), nil
	case TypeJaccard:
		return MakeJaccardLoss(scoreOptionsFromContext(ctx)...), nil
	case TypeDice:
		return MakeDiceLoss(scoreOptionsFromContext(ctx)...), nil
	case TypeBCEJaccard:
		return MakeBCEJaccardLoss(scoreOptionsFromContext(ctx)...), nil
	case TypeBCEDice:
		return MakeBCEDiceLoss(scoreOptionsFromContext(ctx)...), nil
	case TypeCCEJaccard:
		return MakeCCEJaccardLoss(nil, scoreOptionsFromContext(ctx)...), nil
	case TypeCCEDice:
		return MakeCCEDiceLoss(nil, scoreOptionsFromContext(ctx)...), nil
	default:
		return nil, errors.Errorf("unknown loss type %q set for hyperparameter %q, known losses are \"%s\"",
			lossType, ParamLoss, strings.Join(TypeStrings(), "\", \""))
	}
}

// MakeCategoricalFocalLossFromContext builds a categorical focal loss with gamma
// and alpha taken from the ParamFocalGamma and ParamFocalAlpha hyperparameters.
func MakeCategoricalFocalLossFromContext(ctx *context.Context) LossFn {
	gamma := context.GetParamOr(ctx, ParamFocalGamma, DefaultFocalGamma)
	alpha := context.GetParamOr(ctx, ParamFocalAlpha, DefaultFocalAlpha)
	return MakeCategoricalFocalLoss(gamma, alpha)
}

// MakeFocalLossFromContext builds a symmetric focal loss with gamma and alpha taken
// from the ParamFocalGamma and ParamFocalAlpha hyperparameters.
func MakeFocalLossFromContext(ctx *context.Context) LossFn {
	gamma := context.GetParamOr(ctx, ParamFocalGamma, DefaultFocalGamma)
	alpha := context.GetParamOr(ctx, ParamFocalAlpha, DefaultFocalAlpha)
	return MakeFocalLoss(gamma, alpha)
}

// scoreOptionsFromContext assembles the metric options for the score-derived
// losses from the ParamSmooth, ParamPerImage and ParamThreshold
// hyperparameters.
func scoreOptionsFromContext(ctx *context.Context) []metrics.Option {
	opts := []metrics.Option{
		metrics.WithSmooth(context.GetParamOr(ctx, ParamSmooth, metrics.Smooth)),
		metrics.PerImage(context.GetParamOr(ctx, ParamPerImage, true)),
	}
	if threshold := context.GetParamOr(ctx, ParamThreshold, -1.0); threshold >= 0 {
		opts = append(opts, metrics.WithThreshold(threshold))
	}
	return opts
}
