// Package domain implements the burn-severity numeric core: raster model,
// spectral indices, resampling, quality masking, severity classification,
// colorization, and area statistics.
//
// # Data Source
//
// Inputs are Sentinel-2 Level-2A surface-reflectance bands retrieved from a
// STAC catalog. Reflectance is stored as scaled integers (digital numbers);
// dividing by the scale factor (10000) yields unitless reflectance in [0, 1].
//
//	B08 (NIR, 10 m)   near infrared
//	B12 (SWIR, 20 m)  short-wave infrared
//	SCL (20 m)        scene classification layer (categorical)
//
// B12 and SCL are stored on a coarser grid than B08, so they are brought to
// the NIR grid before elementwise arithmetic. See [ResampleTo].
//
// # Invalid Pixels
//
// NaN is the only invalid-pixel sentinel. Nodata values read from storage
// become NaN on load, masked pixels are written as NaN, and every arithmetic
// stage propagates NaN. Numeric placeholders such as -9999 never appear.
//
// # Indices
//
//	NBR  = (NIR − SWIR) / (NIR + SWIR)   NaN where NIR+SWIR == 0
//	dNBR = NBR(pre) − NBR(post)
//
// Division is guarded explicitly per element, never by relying on
// floating-point trap state. See [ComputeIndex].
//
// # Scene Classification Layer
//
// SCL classes excluded by default, see [DefaultCloudClasses]:
//
//	 8  cloud, medium probability
//	 9  cloud, high probability
//	10  thin cirrus
//	11  snow or ice
//
// # Severity Classes
//
// dNBR is classified against an ordered table of half-open [lower, upper)
// intervals. The first matching band wins; unmatched and NaN pixels receive
// [NoClass]. The USGS table in [DefaultBands] is canonical:
//
//	Enhanced Regrowth  [-0.500, -0.250)
//	High Regrowth      [-0.250, -0.100)
//	Unburned           [-0.100,  0.100)
//	Low Severity       [ 0.100,  0.270)
//	Moderate Severity  [ 0.270,  0.660)
//	High Severity      [ 0.660,  1.300)
//
// [SplitModerateBands] is a documented variant that splits the moderate class
// at 0.44 and leaves the outer classes unbounded.
package domain
