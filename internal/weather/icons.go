package weather

import "github.com/i474232898/epaper-dashboard/internal/common"

// IconFromText classifies a free-text condition ("Chance Rain Showers",
// "lightsnowshowers_night", "Thunder-Rain") into an Icon. Providers with
// numeric condition codes use their own tables instead.
func IconFromText(text string, night bool) Icon {
	switch {
	case text == "":
		return IconCloudy
	case common.HasAny(text, "thunder", "storm", "lightning"):
		return IconThunderstorm
	case common.HasAny(text, "sleet", "freezing", "ice", "hail"):
		return IconSleet
	case common.HasAny(text, "snow", "flurr", "blizzard"):
		return IconSnow
	case common.HasAny(text, "shower"):
		return IconShowers
	case common.HasAny(text, "drizzle"):
		return IconDrizzle
	case common.HasAny(text, "rain"):
		return IconRain
	case common.HasAny(text, "fog", "mist", "haze", "smoke"):
		return IconFog
	case common.HasAny(text, "wind", "breez", "blustery"):
		return IconWind
	case common.HasAny(text, "partly", "mostly sunny", "mostly clear", "fair", "few clouds", "fewclouds"):
		if night {
			return IconPartlyCloudyNight
		}
		return IconPartlyCloudyDay
	case common.HasAny(text, "cloud", "overcast"):
		return IconCloudy
	case common.HasAny(text, "sun", "clear"):
		if night {
			return IconClearNight
		}
		return IconClearDay
	default:
		return IconCloudy
	}
}
