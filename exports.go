package kovr

import "github.com/kovrhq/kovr/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Date is re-exported from types package.
type Date = types.Date

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Money constructors
var (
	USD      = types.USD
	EUR      = types.EUR
	GBP      = types.GBP
	Zero     = types.Zero
	Sum      = types.Sum
	NaiveSum = types.NaiveSum
)

// Re-export Date constructors
var (
	NewDate       = types.NewDate
	ParseDate     = types.ParseDate
	MustParseDate = types.MustParseDate
	DateOf        = types.DateOf
	Today         = types.Today
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
