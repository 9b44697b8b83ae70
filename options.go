package imageio

// Properties is the string-keyed dictionary the spec passes at every
// boundary: source-side parsed properties, and destination-side per-image
// or global encode properties. Values are loosely typed (the caller knows
// what each key expects); Finalize and CreateImage only look at the keys
// they recognize and ignore the rest.
type Properties map[string]interface{}

// Well-known property keys recognized by Destination.Finalize (§6 option
// keys, destination). Per-image properties override global ones.
const (
	PropertyLossyCompressionQuality = "LossyCompressionQuality" // float64, 0.0..1.0
	PropertyBackgroundColor         = "BackgroundColor"
	PropertyDateTime                = "DateTime"
	PropertyEmbedThumbnail          = "EmbedThumbnail"
	PropertyImageMaxPixelSize       = "ImageMaxPixelSize" // int
	PropertyMetadata                = "Metadata"          // *metadata.Metadata
	PropertyMergeMetadata           = "MergeMetadata"      // bool
	PropertyOptimizeColorForSharing = "OptimizeColorForSharing"
	PropertyOrientation             = "Orientation" // int, 1..8
	PropertyExcludeGPS              = "MetadataShouldExcludeGPS"
	PropertyExcludeXMP              = "MetadataShouldExcludeXMP"

	// Format-local.
	PropertyPreserveAlpha = "preserveAlpha" // bool, BMP
	PropertyLossless      = "lossless"      // bool, WebP
	PropertyDelay         = "delay"         // int centiseconds, GIF
)

// SourceOptions configures Source construction and CreateImage/
// CreateThumbnail calls (§4.1 "Options recognized").
type SourceOptions struct {
	// TypeIdentifierHint skips format detection when set.
	TypeIdentifierHint Format
	ShouldCache             bool
	ShouldCacheImmediately  bool
	ThumbnailMaxPixelSize   int
	CreateThumbnailAlways   bool
	CreateThumbnailWithTransform bool
	// SubsampleFactor is one of {1, 2, 4, 8}; anything else is treated as 1.
	SubsampleFactor int
}
