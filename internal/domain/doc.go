// Package domain models per-district air-quality, fire, and wind observations
// for the Punjab smog correlation engine.
//
// # Data Sources
//
// Observations originate from the upstream collector, which polls three
// providers once an hour for each of the 42 registered districts (41 Punjab
// districts plus Islamabad) and publishes one flat JSON record per district
// to the Kafka observations topic:
//
//	PM2.5 / PM10   OpenWeather air pollution API, µg/m³
//	Wind           Open-Meteo current conditions, 10 m speed (km/h) and
//	               direction (degrees, meteorological "from" convention)
//	Fires          NASA FIRMS VIIRS NOAA-20 detections inside the provincial
//	               bounding box, reduced to a per-district count and fire
//	               radiative power (FRP, MW) sum. See geo.AssignFires.
//
// # Absence vs. Zero
//
// Every measurement field on [DistrictObservation] is a pointer. A nil
// pointer means the provider did not answer; zero is a real reading (a calm
// hour, a day without detected fires). Aggregations exclude nil fields and
// never substitute zero for them.
//
// # Timestamps
//
// The collector floors timestamps to the hour and treats (timestamp,
// district) as the primary key. The analytical core works on one record per
// district per UTC day; [RollupDaily] folds hourly snapshots into days and
// [Normalize] resolves duplicate days with a last-supplied-wins rule:
//
//	hourly duplicates  → last record for that hour wins
//	daily duplicates   → last record for that day wins
//
// Input order is the only tie-break, so the result is deterministic for a
// given input slice regardless of how the records are sorted.
//
// # District IDs
//
// District IDs are lower-case kebab slugs of the district name
// ("Dera Ghazi Khan" → "dera-ghazi-khan"). The province-wide scope uses the
// reserved ID [ProvinceScope].
package domain
