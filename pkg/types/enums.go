package types

// ScoreDataType represents the data type of a score.
type ScoreDataType string

const (
	ScoreDataTypeNumeric     ScoreDataType = "NUMERIC"
	ScoreDataTypeCategorical ScoreDataType = "CATEGORICAL"
	ScoreDataTypeBoolean     ScoreDataType = "BOOLEAN"
)

// String returns the string representation of the score data type.
func (s ScoreDataType) String() string { return string(s) }

// IsValid reports whether s is a known data type.
func (s ScoreDataType) IsValid() bool {
	switch s {
	case ScoreDataTypeNumeric, ScoreDataTypeCategorical, ScoreDataTypeBoolean:
		return true
	}
	return false
}

// ScoreSource represents the source of a score.
type ScoreSource string

const (
	ScoreSourceAPI        ScoreSource = "API"
	ScoreSourceAnnotation ScoreSource = "ANNOTATION"
	ScoreSourceEval       ScoreSource = "EVAL"
)

// String returns the string representation of the score source.
func (s ScoreSource) String() string { return string(s) }

// ObjectType is the kind of object an annotation queue item refers to.
type ObjectType string

const (
	ObjectTypeSession ObjectType = "SESSION"
	ObjectTypeTrace   ObjectType = "TRACE"
)

// String returns the string representation of the object type.
func (o ObjectType) String() string { return string(o) }

// IsValid reports whether o is a supported object type.
func (o ObjectType) IsValid() bool {
	return o == ObjectTypeSession || o == ObjectTypeTrace
}

// QueueItemStatus is the completion status of an annotation queue item.
type QueueItemStatus string

const (
	QueueItemStatusPending   QueueItemStatus = "PENDING"
	QueueItemStatusCompleted QueueItemStatus = "COMPLETED"
)

// String returns the string representation of the status.
func (s QueueItemStatus) String() string { return string(s) }

// IsValid reports whether s is a known status.
func (s QueueItemStatus) IsValid() bool {
	return s == QueueItemStatusPending || s == QueueItemStatusCompleted
}
