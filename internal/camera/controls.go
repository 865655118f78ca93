package camera

// ControlGroup buckets a ControlId for UI grouping purposes.
type ControlGroup string

const (
	GroupImage    ControlGroup = "image"
	GroupExposure ControlGroup = "exposure"
	GroupFocus    ControlGroup = "focus"
	GroupAdvanced ControlGroup = "advanced"
	GroupCamera   ControlGroup = "camera"
)

// ControlId is the closed enumeration of controls this core understands.
// The first seventeen map to DirectShow-class camera/video-proc amplifier
// properties exposed by the native backend; the last five exist only on the
// Canon vendor-SDK backend.
type ControlId int

const (
	Pan ControlId = iota
	Tilt
	Roll
	Zoom
	Exposure
	Iris
	Focus
	Brightness
	Contrast
	Hue
	Saturation
	Sharpness
	Gamma
	ColorEnable
	WhiteBalance
	BacklightCompensation
	Gain
	CanonIso
	CanonAperture
	CanonShutterSpeed
	CanonWhiteBalance
	CanonExposureCompensation
)

var controlIDStrings = map[ControlId]string{
	Pan:                       "pan",
	Tilt:                      "tilt",
	Roll:                      "roll",
	Zoom:                      "zoom",
	Exposure:                  "exposure",
	Iris:                      "iris",
	Focus:                     "focus",
	Brightness:                "brightness",
	Contrast:                  "contrast",
	Hue:                       "hue",
	Saturation:                "saturation",
	Sharpness:                 "sharpness",
	Gamma:                     "gamma",
	ColorEnable:               "color_enable",
	WhiteBalance:              "white_balance",
	BacklightCompensation:     "backlight_compensation",
	Gain:                      "gain",
	CanonIso:                  "canon_iso",
	CanonAperture:             "canon_aperture",
	CanonShutterSpeed:         "canon_shutter_speed",
	CanonWhiteBalance:         "canon_white_balance",
	CanonExposureCompensation: "canon_exposure_compensation",
}

var controlIDNames = map[ControlId]string{
	Pan:                       "Pan",
	Tilt:                      "Tilt",
	Roll:                      "Roll",
	Zoom:                      "Zoom",
	Exposure:                  "Exposure",
	Iris:                      "Iris",
	Focus:                     "Focus",
	Brightness:                "Brightness",
	Contrast:                  "Contrast",
	Hue:                       "Hue",
	Saturation:                "Saturation",
	Sharpness:                 "Sharpness",
	Gamma:                     "Gamma",
	ColorEnable:               "Color Enable",
	WhiteBalance:              "White Balance",
	BacklightCompensation:     "Backlight Compensation",
	Gain:                      "Gain",
	CanonIso:                  "ISO",
	CanonAperture:             "Aperture",
	CanonShutterSpeed:         "Shutter Speed",
	CanonWhiteBalance:         "White Balance",
	CanonExposureCompensation: "Exposure Compensation",
}

var controlIDGroups = map[ControlId]ControlGroup{
	Brightness:                GroupImage,
	Contrast:                  GroupImage,
	Saturation:                GroupImage,
	Hue:                       GroupImage,
	Sharpness:                 GroupImage,
	Gamma:                     GroupImage,
	Gain:                      GroupImage,
	Exposure:                  GroupExposure,
	WhiteBalance:              GroupExposure,
	BacklightCompensation:     GroupExposure,
	Focus:                     GroupFocus,
	Zoom:                      GroupFocus,
	Iris:                      GroupFocus,
	Pan:                       GroupAdvanced,
	Tilt:                      GroupAdvanced,
	Roll:                      GroupAdvanced,
	ColorEnable:               GroupAdvanced,
	CanonIso:                  GroupCamera,
	CanonAperture:             GroupCamera,
	CanonShutterSpeed:         GroupCamera,
	CanonWhiteBalance:         GroupCamera,
	CanonExposureCompensation: GroupCamera,
}

var stringToControlID map[string]ControlId

func init() {
	stringToControlID = make(map[string]ControlId, len(controlIDStrings))
	for id, s := range controlIDStrings {
		stringToControlID[s] = id
	}
}

// IDString returns the canonical snake_case identifier used at the IPC
// boundary and in persisted settings.
func (c ControlId) IDString() string { return controlIDStrings[c] }

// Name returns the human-readable display name.
func (c ControlId) Name() string { return controlIDNames[c] }

// Group returns the UI grouping this control belongs to.
func (c ControlId) Group() ControlGroup { return controlIDGroups[c] }

// ControlIdFromString is the exact inverse of IDString; ok is false for any
// string outside the closed enumeration.
func ControlIdFromString(s string) (ControlId, bool) {
	id, ok := stringToControlID[s]
	return id, ok
}

// ControlKind enumerates the three ways a control is presented to a user.
type ControlKind string

const (
	KindSlider ControlKind = "slider"
	KindToggle ControlKind = "toggle"
	KindSelect ControlKind = "select"
)

// ControlFlags carries boolean metadata about a control's current auto/manual
// state and write-capability.
type ControlFlags struct {
	SupportsAuto  bool `json:"supportsAuto"`
	IsAutoEnabled bool `json:"isAutoEnabled"`
	IsReadOnly    bool `json:"isReadOnly"`
}

// ControlOption is one legal value for a select-kind control, with a
// human-readable label (used for the Canon vendor property translation
// tables: ISO, aperture, shutter speed, white balance).
type ControlOption struct {
	Value int32  `json:"value"`
	Label string `json:"label"`
}

// ControlDescriptor fully describes one control on one device: its identity,
// kind, legal range or options, and current state.
type ControlDescriptor struct {
	ID        ControlId       `json:"id"`
	Name      string          `json:"name"`
	Group     ControlGroup    `json:"group"`
	Kind      ControlKind     `json:"kind"`
	Min       *int32          `json:"min,omitempty"`
	Max       *int32          `json:"max,omitempty"`
	Step      *int32          `json:"step,omitempty"`
	Default   *int32          `json:"default,omitempty"`
	Current   int32           `json:"current"`
	Flags     ControlFlags    `json:"flags"`
	Options   []ControlOption `json:"options,omitempty"`
	Supported bool            `json:"supported"`
}

// IDString renders the descriptor's ControlId as its IPC string form; used
// by JSON encoding wrappers that need the snake_case id rather than the int.
func (d ControlDescriptor) IDString() string { return d.ID.IDString() }

// ControlValue is a single clamped, signed control value. The zero value is
// not meaningful on its own — always construct via NewControlValue.
type ControlValue struct {
	value int32
}

// NewControlValue is the only legal constructor: it clamps v into [min,max]
// when both bounds are supplied. Range is never re-enforced later in the
// stack except by re-clamping against a freshly fetched descriptor.
func NewControlValue(v int32, min, max *int32) ControlValue {
	if min != nil && v < *min {
		v = *min
	}
	if max != nil && v > *max {
		v = *max
	}
	return ControlValue{value: v}
}

func (v ControlValue) Int32() int32 { return v.value }

// ClampToDescriptor re-clamps a raw value against a freshly fetched
// descriptor's range, used by the settings apply engine.
func ClampToDescriptor(raw int32, d ControlDescriptor) ControlValue {
	return NewControlValue(raw, d.Min, d.Max)
}
