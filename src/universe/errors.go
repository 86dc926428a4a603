package universe

import "errors"

var (
	//ErrInvalidArgument is returned for non-positive dimensions, bad probabilities and unknown option values
	ErrInvalidArgument = errors.New("invalid argument")
	//ErrOutOfRange is returned when a cell coordinate lies outside the grid
	ErrOutOfRange = errors.New("out of range")
	//ErrAllocationFailure is returned when a grid buffer cannot be allocated
	ErrAllocationFailure = errors.New("allocation failure")
)
