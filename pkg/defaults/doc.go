// Package defaults centralizes timeout values and filesystem paths used
// across forgeadm so operational knobs live in one reviewable place.
package defaults
