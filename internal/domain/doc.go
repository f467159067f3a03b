// Package domain models NOAA climate data used by the station digest and the
// temperature anomaly map.
//
// # Climate Data Online (CDO)
//
// Location and station metadata come from the NCEI CDO v2 REST API
// (https://www.ncei.noaa.gov/cdo-web/api/v2). Responses are JSON objects with
// an optional "results" array; an absent or empty array marks the end of a
// paged listing.
//
// Location identifiers:
//
//	"<CATEGORY>:<COUNTRY><CODE>"  →  e.g. "CITY:US370001"
//	The two letters after the colon are the FIPS country code, so a country
//	filter is a plain prefix match ("CITY:US").
//
// Daily observations (dataset "GHCND") are requested with units=metric, which
// returns temperatures in degrees Celsius. TMAX and TMIN are daily extremes.
//
// # CPC Global Unified Temperature
//
// Gridded daily maximum temperature comes from the NOAA PSL THREDDS server:
//
//	tmax.<year>.nc                 one slice per calendar day of <year>
//	tmax.day.ltm.1981-2010.nc      365 slices, long-term mean per day-of-year
//
// Both grids are 0.5° global, latitude descending from 89.75, longitude
// ascending from 0.25 (0 to 360). Missing values are stored as -9.96921e36.
//
// Day-of-year is 1-based (January 1 = 1). The climatology slice for a date is
// at zero-based index dayOfYear-1. See [ClimatologyIndex].
//
// # Anomaly
//
// An anomaly is the observed value minus the climatological mean for the same
// day-of-year on an identical grid. No regridding is performed; grids with
// different shapes are rejected with [ErrShapeMismatch].
package domain
