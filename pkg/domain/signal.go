package domain

import "time"

// SignalKind identifies where a raw time signal was found
type SignalKind int

const (
	// SignalAbsolute is a machine-readable datetime attribute of a time element
	SignalAbsolute SignalKind = iota
	// SignalRelative is human relative text like "2d", "3mo" or "just now"
	SignalRelative
	// SignalAsset is a numeric timestamp embedded in a media asset URL
	SignalAsset
)

// EpochUnit is the unit of an embedded asset timestamp
type EpochUnit int

const (
	EpochSeconds EpochUnit = iota
	EpochMillis
)

// TimeSignal is one raw time hint collected from a feed item.
// Text is set for absolute and relative signals, Epoch and Unit for asset signals.
type TimeSignal struct {
	Kind  SignalKind
	Text  string
	Epoch int64
	Unit  EpochUnit
}

// AbsoluteSignal makes a signal from a datetime attribute value
func AbsoluteSignal(text string) TimeSignal {
	return TimeSignal{Kind: SignalAbsolute, Text: text}
}

// RelativeSignal makes a signal from relative time text
func RelativeSignal(text string) TimeSignal {
	return TimeSignal{Kind: SignalRelative, Text: text}
}

// AssetSignal makes a signal from an epoch value found in a media URL
func AssetSignal(epoch int64, unit EpochUnit) TimeSignal {
	return TimeSignal{Kind: SignalAsset, Epoch: epoch, Unit: unit}
}

// TimeSource tells which signal produced a resolved timestamp
type TimeSource string

const (
	SourceAsset    TimeSource = "embedded-asset"
	SourceAbsolute TimeSource = "absolute-attribute"
	SourceRelative TimeSource = "relative-approximate"
	SourceFallback TimeSource = "fallback-now"
)

// Timestamp is the single resolved point in time of a post, always in UTC
type Timestamp struct {
	Time   time.Time
	Source TimeSource
}
