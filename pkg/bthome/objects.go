package bthome

import "fmt"

// ObjectID is the one-byte code that prefixes every object in a payload. The
// code alone determines how many value bytes follow and how they decode; some
// physical quantities have several codes with different widths or scales.
type ObjectID uint8

// Sensor objects.
const (
	PacketID        ObjectID = 0x00
	Battery         ObjectID = 0x01
	Temperature1    ObjectID = 0x02
	Humidity1       ObjectID = 0x03
	Pressure        ObjectID = 0x04
	Illuminance     ObjectID = 0x05
	MassKg          ObjectID = 0x06
	MassLb          ObjectID = 0x07
	Dewpoint        ObjectID = 0x08
	Count1          ObjectID = 0x09
	Energy1         ObjectID = 0x0A
	Power1          ObjectID = 0x0B
	Voltage1        ObjectID = 0x0C
	PM25            ObjectID = 0x0D
	PM10            ObjectID = 0x0E
	CO2             ObjectID = 0x12
	TVOC            ObjectID = 0x13
	Moisture1       ObjectID = 0x14
	Humidity2       ObjectID = 0x2E
	Moisture2       ObjectID = 0x2F
	Count2          ObjectID = 0x3D
	Count3          ObjectID = 0x3E
	Rotation        ObjectID = 0x3F
	DistanceMM      ObjectID = 0x40
	DistanceM       ObjectID = 0x41
	Duration        ObjectID = 0x42
	Current1        ObjectID = 0x43
	Speed1          ObjectID = 0x44
	Temperature2    ObjectID = 0x45
	UVIndex         ObjectID = 0x46
	Volume1         ObjectID = 0x47
	Volume2         ObjectID = 0x48
	VolumeFlowRate  ObjectID = 0x49
	Voltage2        ObjectID = 0x4A
	Gas1            ObjectID = 0x4B
	Gas2            ObjectID = 0x4C
	Energy2         ObjectID = 0x4D
	Volume3         ObjectID = 0x4E
	Water           ObjectID = 0x4F
	Timestamp       ObjectID = 0x50
	Acceleration1   ObjectID = 0x51
	Gyroscope       ObjectID = 0x52
	TextData        ObjectID = 0x53
	RawData         ObjectID = 0x54
	VolumeStorage   ObjectID = 0x55
	Conductivity    ObjectID = 0x56
	Temperature3    ObjectID = 0x57
	Temperature4    ObjectID = 0x58
	Count4          ObjectID = 0x59
	Count5          ObjectID = 0x5A
	Count6          ObjectID = 0x5B
	Power2          ObjectID = 0x5C
	Current2        ObjectID = 0x5D
	Direction       ObjectID = 0x5E
	Precipitation   ObjectID = 0x5F
	Channel         ObjectID = 0x60
	RotationalSpeed ObjectID = 0x61
	Speed2          ObjectID = 0x62
	Acceleration2   ObjectID = 0x63
)

// Binary sensor objects.
const (
	GenericBoolean   ObjectID = 0x0F
	PowerOn          ObjectID = 0x10
	Opening          ObjectID = 0x11
	BatteryLow       ObjectID = 0x15
	BatteryCharging  ObjectID = 0x16
	CarbonMonoxide   ObjectID = 0x17
	Cold             ObjectID = 0x18
	Connectivity     ObjectID = 0x19
	Door             ObjectID = 0x1A
	GarageDoor       ObjectID = 0x1B
	GasDetected      ObjectID = 0x1C
	Heat             ObjectID = 0x1D
	Light            ObjectID = 0x1E
	Lock             ObjectID = 0x1F
	MoistureDetected ObjectID = 0x20
	Motion           ObjectID = 0x21
	Moving           ObjectID = 0x22
	Occupancy        ObjectID = 0x23
	Plug             ObjectID = 0x24
	Presence         ObjectID = 0x25
	Problem          ObjectID = 0x26
	Running          ObjectID = 0x27
	Safety           ObjectID = 0x28
	Smoke            ObjectID = 0x29
	Sound            ObjectID = 0x2A
	Tamper           ObjectID = 0x2B
	Vibration        ObjectID = 0x2C
	Window           ObjectID = 0x2D
)

// Event and device information objects.
const (
	Button           ObjectID = 0x3A
	Dimmer           ObjectID = 0x3C
	DeviceTypeID     ObjectID = 0xF0
	FirmwareVersion1 ObjectID = 0xF1
	FirmwareVersion2 ObjectID = 0xF2
)

// ObjectInfo describes one catalog entry.
type ObjectInfo struct {
	ID     ObjectID
	Name   string
	Key    string // snake_case measurement name, shared only by codes with the same unit
	Unit   string
	Format Format
	Width  int     // value bytes; 0 for length-prefixed objects
	Factor float64 // 0 when the value is not scaled

	decode decoder
}

type layout struct {
	format Format
	width  int
	factor float64
	decode decoder
}

func uintOf(width int) layout {
	return layout{format: FormatUint, width: width, decode: intDecoder(width, false)}
}

func sintOf(width int) layout {
	return layout{format: FormatSint, width: width, decode: intDecoder(width, true)}
}

func uscaled(width int, factor float64) layout {
	return layout{format: FormatUint, width: width, factor: factor, decode: floatDecoder(width, false, factor)}
}

func sscaled(width int, factor float64) layout {
	return layout{format: FormatSint, width: width, factor: factor, decode: floatDecoder(width, true, factor)}
}

var (
	boolean = layout{format: FormatBool, width: 1, decode: decodeBool}
	text    = layout{format: FormatText, decode: decodeText}
	raw     = layout{format: FormatRaw, decode: decodeRaw}
	button  = layout{format: FormatButton, width: 1, decode: decodeButton}
	dimmer  = layout{format: FormatDimmer, width: 2, decode: decodeDimmer}
)

var objectDefs = []struct {
	id     ObjectID
	name   string
	key    string
	unit   string
	layout layout
}{
	{PacketID, "PacketID", "packet_id", "", uintOf(1)},
	{Battery, "Battery", "battery", "%", uintOf(1)},
	{Temperature1, "Temperature1", "temperature", "°C", sscaled(2, 0.01)},
	{Humidity1, "Humidity1", "humidity", "%", uscaled(2, 0.01)},
	{Pressure, "Pressure", "pressure", "hPa", uscaled(3, 0.01)},
	{Illuminance, "Illuminance", "illuminance", "lx", uscaled(3, 0.01)},
	{MassKg, "MassKg", "mass_kg", "kg", uscaled(2, 0.01)},
	{MassLb, "MassLb", "mass_lb", "lb", uscaled(2, 0.01)},
	{Dewpoint, "Dewpoint", "dewpoint", "°C", sscaled(2, 0.01)},
	{Count1, "Count1", "count", "", uintOf(1)},
	{Energy1, "Energy1", "energy", "kWh", uscaled(3, 0.001)},
	{Power1, "Power1", "power", "W", uscaled(3, 0.01)},
	{Voltage1, "Voltage1", "voltage", "V", uscaled(2, 0.001)},
	{PM25, "PM25", "pm2_5", "µg/m³", uintOf(2)},
	{PM10, "PM10", "pm10", "µg/m³", uintOf(2)},
	{GenericBoolean, "GenericBoolean", "generic_boolean", "", boolean},
	{PowerOn, "PowerOn", "power_on", "", boolean},
	{Opening, "Opening", "opening", "", boolean},
	{CO2, "CO2", "co2", "ppm", uintOf(2)},
	{TVOC, "TVOC", "tvoc", "µg/m³", uintOf(2)},
	{Moisture1, "Moisture1", "moisture", "%", uscaled(2, 0.01)},
	{BatteryLow, "BatteryLow", "battery_low", "", boolean},
	{BatteryCharging, "BatteryCharging", "battery_charging", "", boolean},
	{CarbonMonoxide, "CarbonMonoxide", "carbon_monoxide", "", boolean},
	{Cold, "Cold", "cold", "", boolean},
	{Connectivity, "Connectivity", "connectivity", "", boolean},
	{Door, "Door", "door", "", boolean},
	{GarageDoor, "GarageDoor", "garage_door", "", boolean},
	{GasDetected, "GasDetected", "gas_detected", "", boolean},
	{Heat, "Heat", "heat", "", boolean},
	{Light, "Light", "light", "", boolean},
	{Lock, "Lock", "lock", "", boolean},
	{MoistureDetected, "MoistureDetected", "moisture_detected", "", boolean},
	{Motion, "Motion", "motion", "", boolean},
	{Moving, "Moving", "moving", "", boolean},
	{Occupancy, "Occupancy", "occupancy", "", boolean},
	{Plug, "Plug", "plug", "", boolean},
	{Presence, "Presence", "presence", "", boolean},
	{Problem, "Problem", "problem", "", boolean},
	{Running, "Running", "running", "", boolean},
	{Safety, "Safety", "safety", "", boolean},
	{Smoke, "Smoke", "smoke", "", boolean},
	{Sound, "Sound", "sound", "", boolean},
	{Tamper, "Tamper", "tamper", "", boolean},
	{Vibration, "Vibration", "vibration", "", boolean},
	{Window, "Window", "window", "", boolean},
	{Humidity2, "Humidity2", "humidity", "%", uintOf(1)},
	{Moisture2, "Moisture2", "moisture", "%", uintOf(1)},
	{Button, "Button", "button", "", button},
	{Dimmer, "Dimmer", "dimmer", "", dimmer},
	{Count2, "Count2", "count", "", uintOf(2)},
	{Count3, "Count3", "count", "", uintOf(4)},
	{Rotation, "Rotation", "rotation", "°", sscaled(2, 0.1)},
	{DistanceMM, "DistanceMM", "distance_mm", "mm", uintOf(2)},
	{DistanceM, "DistanceM", "distance_m", "m", uscaled(2, 0.1)},
	{Duration, "Duration", "duration", "s", uscaled(3, 0.001)},
	{Current1, "Current1", "current", "A", uscaled(2, 0.001)},
	{Speed1, "Speed1", "speed", "m/s", uscaled(2, 0.01)},
	{Temperature2, "Temperature2", "temperature", "°C", sscaled(2, 0.1)},
	{UVIndex, "UVIndex", "uv_index", "", uscaled(1, 0.1)},
	{Volume1, "Volume1", "volume", "L", uscaled(2, 0.1)},
	{Volume2, "Volume2", "volume_ml", "mL", uintOf(2)},
	{VolumeFlowRate, "VolumeFlowRate", "volume_flow_rate", "m³/h", uscaled(2, 0.001)},
	{Voltage2, "Voltage2", "voltage", "V", uscaled(2, 0.1)},
	{Gas1, "Gas1", "gas", "m³", uscaled(3, 0.001)},
	{Gas2, "Gas2", "gas", "m³", uscaled(4, 0.001)},
	{Energy2, "Energy2", "energy", "kWh", uscaled(4, 0.001)},
	{Volume3, "Volume3", "volume", "L", uscaled(4, 0.001)},
	{Water, "Water", "water", "L", uscaled(4, 0.001)},
	{Timestamp, "Timestamp", "timestamp", "s", uintOf(4)},
	{Acceleration1, "Acceleration1", "acceleration", "m/s²", uscaled(2, 0.001)},
	{Gyroscope, "Gyroscope", "gyroscope", "°/s", uscaled(2, 0.001)},
	{TextData, "Text", "text", "", text},
	{RawData, "Raw", "raw", "", raw},
	{VolumeStorage, "VolumeStorage", "volume_storage", "L", uscaled(4, 0.001)},
	{Conductivity, "Conductivity", "conductivity", "µS/cm", uintOf(2)},
	{Temperature3, "Temperature3", "temperature", "°C", sintOf(1)},
	{Temperature4, "Temperature4", "temperature", "°C", sscaled(1, 0.35)},
	{Count4, "Count4", "count", "", sintOf(1)},
	{Count5, "Count5", "count", "", sintOf(2)},
	{Count6, "Count6", "count", "", sintOf(4)},
	{Power2, "Power2", "power", "W", sscaled(4, 0.01)},
	{Current2, "Current2", "current", "A", sscaled(2, 0.001)},
	{Direction, "Direction", "direction", "°", uscaled(2, 0.01)},
	{Precipitation, "Precipitation", "precipitation", "mm", uscaled(2, 0.1)},
	{Channel, "Channel", "channel", "", uintOf(1)},
	{RotationalSpeed, "RotationalSpeed", "rotational_speed", "rpm", uintOf(2)},
	{Speed2, "Speed2", "speed", "m/s", sscaled(4, 0.000001)},
	{Acceleration2, "Acceleration2", "acceleration", "m/s²", sscaled(4, 0.000001)},
	{DeviceTypeID, "DeviceTypeID", "device_type_id", "", uintOf(2)},
	{FirmwareVersion1, "FirmwareVersion1", "firmware_version", "", uintOf(4)},
	{FirmwareVersion2, "FirmwareVersion2", "firmware_version", "", uintOf(3)},
}

// catalog is indexed by code and never written after init.
var catalog [256]*ObjectInfo

func init() {
	for _, def := range objectDefs {
		if catalog[def.id] != nil {
			panic(fmt.Sprintf("bthome: object 0x%02X declared twice", uint8(def.id)))
		}
		catalog[def.id] = &ObjectInfo{
			ID:     def.id,
			Name:   def.name,
			Key:    def.key,
			Unit:   def.unit,
			Format: def.layout.format,
			Width:  def.layout.width,
			Factor: def.layout.factor,
			decode: def.layout.decode,
		}
	}
}

// LookupObject resolves an identifier byte against the catalog.
func LookupObject(b byte) (ObjectInfo, error) {
	info := catalog[b]
	if info == nil {
		return ObjectInfo{}, &UnknownObjectError{ID: b}
	}
	return *info, nil
}

// Catalog returns every known object ordered by code.
func Catalog() []ObjectInfo {
	out := make([]ObjectInfo, 0, len(objectDefs))
	for _, info := range catalog {
		if info != nil {
			out = append(out, *info)
		}
	}
	return out
}

// Known reports whether id is part of the catalog.
func (id ObjectID) Known() bool { return catalog[id] != nil }

// Info returns the catalog entry for id; the zero value for unknown codes.
func (id ObjectID) Info() ObjectInfo {
	if info := catalog[id]; info != nil {
		return *info
	}
	return ObjectInfo{}
}

func (id ObjectID) String() string {
	if info := catalog[id]; info != nil {
		return info.Name
	}
	return fmt.Sprintf("ObjectID(0x%02X)", uint8(id))
}
