// Package form decodes flat, bracket-keyed submissions (multipart or
// url-encoded forms, or already-typed JSON bodies) into nested trees.
//
// A key such as "resort[amenities][0]" is split into the prefix "resort"
// and the segments ["amenities", "0"]; numeric segments address array
// slots, any other segment addresses an object key. String leaves are run
// through Coerce so that "true", "12.5" or an embedded JSON document come
// out typed.
package form
