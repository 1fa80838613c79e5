// Package serialization stores state dicts in binary checkpoint formats.
//
// Two formats are supported. The native .born v2 format:
//
//	0x00  [4]byte  magic "BORN"
//	0x04  uint32   format version (2)
//	0x08  uint32   flags
//	0x0C  uint32   reserved
//	0x10  uint64   JSON header size
//	0x18  uint64   data section size
//	0x20  [32]byte SHA-256 of the data section
//	0x40  JSON header, zero padded to a 64-byte boundary
//	      tensor data, little-endian, in header order
//
// and SafeTensors (8-byte header size, JSON header, data). Both keep the
// entry order of the statedict.Dict they were written from.
//
// Example:
//
//	dict, err := statedict.Load(ctx, "params.json")
//	if err != nil {
//	    return err
//	}
//	if err := serialization.Save("params.born", dict, serialization.WriteOptions{
//	    Source: "params.json",
//	}); err != nil {
//	    return err
//	}
//
//	r, err := serialization.Open("params.born", serialization.ReaderOptions{})
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	restored, err := r.Dict()
package serialization
