package ports

import "github.com/bft-labs/batcher/pkg/log"

// Logger is the structured logging port shared with the public packages.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field
