package point

import "jasper-mate-utils/src/fxt/xerr"

// Subsystem bytes (level 1) under the POINT category.
const (
	subConstruct uint8 = 1
	subDatabase  uint8 = 2
	subJSON      uint8 = 3
)

// Leaf bytes (level 3), scoped within their subsystem.
const (
	leafUnknownType uint8 = 1 + iota
	leafDuplicateID
	leafSizeMismatch
	leafOutOfMemory
)

const (
	leafNotFound uint8 = 1 + iota
	leafAlreadyExists
)

const (
	leafBadSyntax uint8 = 1 + iota
	leafMissingField
	leafTypeMismatch
	leafOutOfRange
)

// Codes used across the package.
var (
	ErrUnknownType      = xerr.New(xerr.CatPoint, subConstruct, 0, leafUnknownType)
	ErrDuplicateID      = xerr.New(xerr.CatPoint, subConstruct, 0, leafDuplicateID)
	ErrConstructSize    = xerr.New(xerr.CatPoint, subConstruct, 0, leafSizeMismatch)
	ErrConstructOOM     = xerr.New(xerr.CatPoint, subConstruct, 0, leafOutOfMemory)
	ErrNotFound         = xerr.New(xerr.CatPoint, subDatabase, 0, leafNotFound)
	ErrAlreadyExists    = xerr.New(xerr.CatPoint, subDatabase, 0, leafAlreadyExists)
	ErrJSONBadSyntax    = xerr.New(xerr.CatPoint, subJSON, 0, leafBadSyntax)
	ErrJSONMissingField = xerr.New(xerr.CatPoint, subJSON, 0, leafMissingField)
	ErrJSONTypeMismatch = xerr.New(xerr.CatPoint, subJSON, 0, leafTypeMismatch)
	ErrJSONOutOfRange   = xerr.New(xerr.CatPoint, subJSON, 0, leafOutOfRange)
)

func init() {
	xerr.Register(1, xerr.CatPoint, subConstruct, 0, 0, "CONSTRUCT")
	xerr.Register(1, xerr.CatPoint, subDatabase, 0, 0, "DATABASE")
	xerr.Register(1, xerr.CatPoint, subJSON, 0, 0, "JSON")

	xerr.Register(3, xerr.CatPoint, subConstruct, 0, leafUnknownType, "UNKNOWN_TYPE")
	xerr.Register(3, xerr.CatPoint, subConstruct, 0, leafDuplicateID, "DUPLICATE_ID")
	xerr.Register(3, xerr.CatPoint, subConstruct, 0, leafSizeMismatch, "SIZE_MISMATCH")
	xerr.Register(3, xerr.CatPoint, subConstruct, 0, leafOutOfMemory, "OUT_OF_MEMORY")
	xerr.Register(3, xerr.CatPoint, subDatabase, 0, leafNotFound, "NOT_FOUND")
	xerr.Register(3, xerr.CatPoint, subDatabase, 0, leafAlreadyExists, "ALREADY_EXISTS")
	xerr.Register(3, xerr.CatPoint, subJSON, 0, leafBadSyntax, "BAD_SYNTAX")
	xerr.Register(3, xerr.CatPoint, subJSON, 0, leafMissingField, "MISSING_FIELD")
	xerr.Register(3, xerr.CatPoint, subJSON, 0, leafTypeMismatch, "TYPE_MISMATCH")
	xerr.Register(3, xerr.CatPoint, subJSON, 0, leafOutOfRange, "OUT_OF_RANGE")
}
