// Package sanitizer provides input normalization for guest-facing data.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// typically by returning empty strings or empty slices rather than errors.
//
// Normalization includes:
//   - Phone numbers: Convert to E.164 format (+[country][number])
//   - Strings: Collapse whitespace, trim leading/trailing spaces
//   - Amenities: Lowercase, replace separator runs with underscores -
//     "Free WiFi" becomes "free_wifi"
//   - Slices: Remove duplicates and empty values after normalization
package sanitizer
