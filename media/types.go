// media/types.go
package media

type AssetType string

const (
	AssetTypePreview AssetType = "preview"
	AssetTypeExport  AssetType = "export"
	AssetTypeUnknown AssetType = "unknown"
)

// Metadata struct
// Contains EXIF and dimension information read from the photo file itself,
// as opposed to the sidecar
type Metadata struct {
	Width        *int     `json:"width,omitempty"`
	Height       *int     `json:"height,omitempty"`
	Aperture     *float64 `json:"aperture,omitempty"`
	ShutterSpeed *string  `json:"shutter_speed,omitempty"`
	ISO          *int     `json:"iso,omitempty"`
	FocalLength  *float64 `json:"focal_length,omitempty"`
	LensMake     *string  `json:"lens_make,omitempty"`
	LensModel    *string  `json:"lens_model,omitempty"`
	CameraMake   *string  `json:"camera_make,omitempty"`
	CameraModel  *string  `json:"camera_model,omitempty"`
	TakenAt      *int64   `json:"taken_at,omitempty"`
}
