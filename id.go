package kovr

import "github.com/kovrhq/kovr/id"

// ID is the primary identifier type for all Kovr entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
