// Package tdc decodes the timestamp words produced by a time-to-digital
// converter streaming over a DPTI port.
//
// # Word format
//
// Each word is Layout.WordBytes bytes long and carries three fields, most
// significant first:
//
//	| training (T bits) | coarse (C bits) | fine (F bits) |
//
// The training field must equal Layout.TrainPattern; it is how the decoder
// finds word boundaries. The coarse field counts cycles of the reference
// clock. The fine field is the delay-line phase, in taps of
// Timebase.FineResolution, measured back from the next coarse edge:
//
//	time = (coarse+1)/ReferenceHz - fine*FineResolution
//
// # Usage
//
//	dec, err := tdc.NewDecoder(buf, tdc.DefaultLayout, tdc.DefaultTimebase)
//	if err != nil {
//		return err
//	}
//	for rec := range dec.All() {
//		fmt.Println(rec.Coarse, rec.Fine, rec.Time, rec.TimeDelta)
//	}
//	fmt.Println("misses:", dec.Misses())
//
// A training mismatch makes the decoder slide one byte forward and try
// again, so a stream that slipped by a byte realigns without losing more
// than the damaged word.
package tdc
