package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is returned when two rasters that must share a pixel
	// grid differ in shape.
	ErrShapeMismatch = errors.New("input shape mismatch")

	// ErrNoDataFound is returned when a catalog search yields no items.
	ErrNoDataFound = errors.New("no items found for window")

	// ErrTransferFailure wraps download and transfer errors.
	ErrTransferFailure = errors.New("transfer failure")

	// ErrMissingAsset is returned when an item lacks a requested band.
	ErrMissingAsset = errors.New("missing asset")
)

// MissingAssetError names the band absent from an item's asset map.
type MissingAssetError struct {
	Band   string
	ItemID string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("asset %s not found in item %s", e.Band, e.ItemID)
}

// Is lets errors.Is(err, ErrMissingAsset) match.
func (e *MissingAssetError) Is(target error) bool { return target == ErrMissingAsset }

func shapeMismatch(a, b Shape) error {
	return fmt.Errorf("%w: %s vs %s", ErrShapeMismatch, a, b)
}
