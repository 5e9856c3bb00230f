package card

import (
	"fmt"

	"jasper-mate-utils/src/fxt/xerr"
)

const (
	subResolve uint8 = 1
	subDriver  uint8 = 2
)

const (
	leafPointNotFound uint8 = 1 + iota
)

const (
	leafIOTimeout uint8 = 1 + iota
	leafIOFault
)

var (
	ErrPointNotFound = xerr.New(xerr.CatCard, subResolve, 0, leafPointNotFound)
	ErrIOTimeout     = xerr.New(xerr.CatCard, subDriver, 0, leafIOTimeout)
	ErrIOFault       = xerr.New(xerr.CatCard, subDriver, 0, leafIOFault)
)

func init() {
	xerr.Register(1, xerr.CatCard, subResolve, 0, 0, "RESOLVE")
	xerr.Register(1, xerr.CatCard, subDriver, 0, 0, "DRIVER")
	xerr.Register(3, xerr.CatCard, subResolve, 0, leafPointNotFound, "POINT_NOT_FOUND")
	xerr.Register(3, xerr.CatCard, subDriver, 0, leafIOTimeout, "IO_TIMEOUT")
	xerr.Register(3, xerr.CatCard, subDriver, 0, leafIOFault, "IO_FAULT")
}

func notFoundError(id uint32) error {
	return xerr.Wrap(ErrPointNotFound, fmt.Sprintf("point id %d", id))
}
