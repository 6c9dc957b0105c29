/*package units contains the unit strings and CGS physical constants used by
xphoton field declarations. Unit strings follow the conventions of the usual
simulation analysis toolchains so that field metadata written by xphoton can
be understood downstream without translation.*/
package units

// Physical constants in CGS.
const (
	// ProtonMass is the proton mass in grams.
	ProtonMass = 1.67262192369e-24
	// CLight is the speed of light in cm/s.
	CLight = 2.99792458e10
	// KeV is one kiloelectronvolt in erg.
	KeV = 1.602176634e-9
	// MpcCm is one megaparsec in cm.
	MpcCm = 3.0856775814913673e24
	// KmS is one km/s in cm/s.
	KmS = 1e5
	// MSun is one solar mass in grams.
	MSun = 1.98892e33
)

// Unit strings attached to fields. These are labels, not a unit algebra:
// every function in xphoton documents the units it expects and produces, and
// mixing them up is a precondition violation, not something this package
// detects.
const (
	NumberDensity = "cm**-3"
	MassDensity   = "g/cm**3"
	Kelvin        = "K"
	Gram          = "g"
	Centimeter    = "cm"
	Mpc           = "Mpc"
	Kpc           = "kpc"
	KeVStr        = "keV"
	CmPerSec      = "cm/s"
	Degree        = "deg"
	CountsPerSec  = "photons/s"
	CountRate     = "photons/s/keV"
	Dimensionless = ""
)
