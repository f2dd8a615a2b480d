// Package config provides configuration types and defaults for avctc.
package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidTestConfig indicates an unknown test configuration name.
	ErrInvalidTestConfig = errors.New("invalid test configuration")

	// ErrInvalidQP indicates a missing QP sweep or a QP outside 0-63.
	ErrInvalidQP = errors.New("QP value out of range")

	// ErrInvalidScaleRatio indicates a bad scaling ratio list.
	ErrInvalidScaleRatio = errors.New("invalid scaling ratio")

	// ErrNoQualityMetrics indicates an empty quality metric list.
	ErrNoQualityMetrics = errors.New("no quality metrics configured")

	// ErrAlgoMismatch indicates down/up scaling algorithm lists that cannot be paired.
	ErrAlgoMismatch = errors.New("scaling algorithm lists mismatch")

	// ErrInvalidFrameNum indicates a non-positive frame count.
	ErrInvalidFrameNum = errors.New("frame count must be positive")

	// ErrInvalidPreset indicates an encoder preset outside the valid range.
	ErrInvalidPreset = errors.New("encoder preset out of range")

	// ErrInvalidBackend indicates an unknown scaler backend.
	ErrInvalidBackend = errors.New("invalid scaler backend")
)
