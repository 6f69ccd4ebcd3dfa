// README: Common identifier and geo primitives shared across modules.
package types

// ID is an opaque entity identifier (hex string from the ID generator or an
// external key such as "v_17" / "er_3" for fleet rows).
type ID string

// Point is a geocoded position in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}
