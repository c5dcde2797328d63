package compute

// Classification buckets. Speed classifications use the risk set, UX
// classifications the severity set; Unavailable is reported whenever the
// classified input is non-numeric or absent.
const (
	SpeedHighRisk   = "high-risk"
	SpeedBorderline = "borderline"
	SpeedStable     = "stable"

	UXHigh     = "high"
	UXModerate = "moderate"
	UXStable   = "stable"

	Unavailable = "unavailable"
)

// UX thresholds, shared by the lab and field variants.
const (
	uxCLSHigh     = 0.1
	uxCLSModerate = 0.07
	uxINPHigh     = 300.0
	uxINPModerate = 200.0
)

// LabSpeed buckets the mobile lab performance score:
// below 50 high-risk, below 75 borderline, otherwise stable.
func LabSpeed(perfScore string) string {
	v, ok := Num(perfScore)
	if !ok {
		return Unavailable
	}
	switch {
	case v < 50:
		return SpeedHighRisk
	case v < 75:
		return SpeedBorderline
	default:
		return SpeedStable
	}
}

// FieldSpeed buckets the field LCP in seconds:
// above 4 high-risk, above 2.5 borderline, otherwise stable.
func FieldSpeed(lcpSeconds string) string {
	v, ok := Num(lcpSeconds)
	if !ok {
		return Unavailable
	}
	switch {
	case v > 4:
		return SpeedHighRisk
	case v > 2.5:
		return SpeedBorderline
	default:
		return SpeedStable
	}
}

// UXRisk buckets a CLS/interactivity pair; both the lab and the field
// variants apply the same thresholds. Both inputs absent → Unavailable;
// one absent input simply cannot trigger its conditions.
func UXRisk(cls, inp string) string {
	clsV, clsOK := Num(cls)
	inpV, inpOK := Num(inp)
	if !clsOK && !inpOK {
		return Unavailable
	}
	switch {
	case (clsOK && clsV > uxCLSHigh) || (inpOK && inpV > uxINPHigh):
		return UXHigh
	case (clsOK && clsV > uxCLSModerate) || (inpOK && inpV > uxINPModerate):
		return UXModerate
	default:
		return UXStable
	}
}
