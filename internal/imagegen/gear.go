package imagegen

// GearPreset is the camera and lighting kit associated with an era.
type GearPreset struct {
	Camera   string
	Lens     string
	ISO      int
	Aperture string
	Shutter  string
	Lighting string
}

type gearBand struct {
	from int
	gear GearPreset
}

// Bands are ordered newest first; a year belongs to the first band whose
// start it reaches.
var gearBands = []gearBand{
	{2020, GearPreset{"Sony A7 IV mirrorless camera", "85mm f/1.4", 100, "f/1.8", "1/200s", "a soft LED octabox key light"}},
	{2010, GearPreset{"Canon EOS 5D Mark III", "85mm f/1.2", 200, "f/2", "1/160s", "a large softbox with a white bounce reflector"}},
	{2000, GearPreset{"Nikon D1X digital SLR", "105mm f/2", 200, "f/2.8", "1/125s", "studio strobes through an umbrella"}},
	{1990, GearPreset{"Nikon F5 loaded with Kodak Portra 160", "85mm f/1.4", 160, "f/2.8", "1/125s", "a beauty dish and a hair light"}},
	{1980, GearPreset{"Canon AE-1 loaded with Kodachrome 64", "50mm f/1.8", 64, "f/2.8", "1/60s", "window light with a silver reflector"}},
	{1970, GearPreset{"Hasselblad 500C/M", "80mm f/2.8 Planar", 100, "f/4", "1/125s", "tungsten studio lamps"}},
	{1960, GearPreset{"Rolleiflex 2.8F loaded with Kodak Tri-X", "80mm f/2.8", 400, "f/5.6", "1/60s", "a single hard key light"}},
	{1950, GearPreset{"Speed Graphic 4x5 press camera", "127mm f/4.7", 100, "f/8", "1/50s", "a flashbulb"}},
}

var earliestGear = GearPreset{"large-format wooden view camera with glass plates", "brass portrait lens", 25, "f/11", "a long exposure", "north-facing skylight"}

// GearForYear returns the preset for year. Every int maps to a preset.
func GearForYear(year int) GearPreset {
	for _, band := range gearBands {
		if year >= band.from {
			return band.gear
		}
	}
	return earliestGear
}
